package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// User is a roster identity. Role is the dispatch tag: admin users operate the
// catalog and the claims workflow, client users own ledger slices.
type User struct {
	ID            int64     `json:"id" db:"id"`
	Username      string    `json:"username" db:"username"`
	Password      string    `json:"-" db:"password"`
	Name          string    `json:"name" db:"name"`
	Role          string    `json:"role" db:"role"`
	WalletAddress string    `json:"wallet_address" db:"wallet_address"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin client"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
