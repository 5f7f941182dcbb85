package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ClaimStatusPending = "pending"
	ClaimStatusCleared = "cleared"
)

// WithdrawalClaim is the operator-facing record of a matured withdrawal
// awaiting payout approval. Its ID is the originating investment's ID; that
// correlation is an enforced invariant, not a convention.
type WithdrawalClaim struct {
	ID             string          `json:"id"`
	UserID         int64           `json:"user_id"`
	UserName       string          `json:"user_name"`
	SchemeName     string          `json:"scheme_name"`
	Amount         decimal.Decimal `json:"amount"`
	ReturnRate     string          `json:"return_rate"`
	ExpectedReturn decimal.Decimal `json:"expected_return"`
	WalletAddress  string          `json:"wallet_address"`
	AppliedAt      time.Time       `json:"applied_at"`
	RequestedAt    time.Time       `json:"requested_at"`
	Status         string          `json:"status"`
	ClearedAt      *time.Time      `json:"cleared_at,omitempty"`
}

// PlatformStats is the operator overview across the whole roster.
type PlatformStats struct {
	ActiveSchemes   int             `json:"active_schemes"`
	TotalSchemes    int             `json:"total_schemes"`
	TotalClients    int             `json:"total_clients"`
	TotalInvested   decimal.Decimal `json:"total_invested"`
	PendingClaims   int             `json:"pending_claims"`
	ClearedClaims   int             `json:"cleared_claims"`
	OutstandingRows int             `json:"outstanding_investments"`
}
