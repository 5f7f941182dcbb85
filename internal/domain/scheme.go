package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusActive    = "active"
	ApplicationStatusWithdrawn = "withdrawn"
)

// Scheme is an investment product template. Identifiers are assigned once and
// never reused; archiving a scheme (IsLive=false) keeps its application history.
type Scheme struct {
	ID              int64           `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Description     string          `json:"description" db:"description"`
	DurationMinutes int             `json:"duration_minutes" db:"duration_minutes"`
	ReturnRate      string          `json:"return_rate" db:"return_rate"`
	MinAmount       decimal.Decimal `json:"min_amount" db:"min_amount"`
	MaxAmount       decimal.Decimal `json:"max_amount" db:"max_amount"`
	IsLive          bool            `json:"is_live" db:"is_live"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Application is the historical record of one commitment event, kept on the
// scheme for reporting even after the related investment is withdrawn.
type Application struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	SchemeID  int64           `json:"scheme_id" db:"scheme_id"`
	UserID    int64           `json:"user_id" db:"user_id"`
	UserName  string          `json:"user_name" db:"user_name"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Status    string          `json:"status" db:"status"`
	AppliedAt time.Time       `json:"applied_at" db:"applied_at"`
}

// DTOs for scheme management requests

type CreateSchemeRequest struct {
	Name            string          `json:"name" validate:"required"`
	Description     string          `json:"description"`
	DurationMinutes int             `json:"duration_minutes" validate:"required,gt=0"`
	ReturnRate      string          `json:"return_rate" validate:"required"`
	MinAmount       decimal.Decimal `json:"min_amount" validate:"required"`
	MaxAmount       decimal.Decimal `json:"max_amount" validate:"required"`
	IsLive          bool            `json:"is_live"`
}

// SchemePatch carries the mutable fields of a scheme. The identifier and the
// application history are never patched.
type SchemePatch struct {
	Name            string          `json:"name" validate:"required"`
	Description     string          `json:"description"`
	DurationMinutes int             `json:"duration_minutes" validate:"required,gt=0"`
	ReturnRate      string          `json:"return_rate" validate:"required"`
	MinAmount       decimal.Decimal `json:"min_amount" validate:"required"`
	MaxAmount       decimal.Decimal `json:"max_amount" validate:"required"`
	IsLive          bool            `json:"is_live"`
}

type SchemeHistoryResponse struct {
	Scheme       *Scheme         `json:"scheme"`
	Applications []*Application  `json:"applications"`
	TotalApplied decimal.Decimal `json:"total_applied"`
}
