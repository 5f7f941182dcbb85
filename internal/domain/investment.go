package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvestmentStatusActive          = "active"
	InvestmentStatusReadyToWithdraw = "ready_to_withdraw"
	InvestmentStatusWithdrawn       = "withdrawn"
)

// Investment is the authoritative per-user record of one commitment. Rate and
// duration are snapshots frozen at commitment time; later scheme edits never
// touch an in-flight investment. TimeRemainingMS and CanWithdraw are derived
// fields, recomputed from StartTime on every reconcile rather than decremented.
type Investment struct {
	ID              string          `json:"id"`
	SchemeID        int64           `json:"scheme_id"`
	SchemeName      string          `json:"scheme_name"`
	Amount          decimal.Decimal `json:"amount"`
	ReturnRate      string          `json:"return_rate"`
	DurationMinutes int             `json:"duration_minutes"`
	StartTime       time.Time       `json:"start_time"`
	AppliedAt       time.Time       `json:"applied_at"`
	TimeRemainingMS int64           `json:"time_remaining_ms"`
	CanWithdraw     bool            `json:"can_withdraw"`
	Status          string          `json:"status"`
	ExpectedReturn  decimal.Decimal `json:"expected_return"`
	ExpectedTotal   decimal.Decimal `json:"expected_total"`

	// Set on withdrawal only.
	WithdrawnAt     *time.Time      `json:"withdrawn_at,omitempty"`
	ActualReturn    decimal.Decimal `json:"actual_return"`
	WithdrawnAmount decimal.Decimal `json:"withdrawn_amount"`
	WalletAddress   string          `json:"wallet_address,omitempty"`

	// Set by operator approval write-back.
	ClearedAt *time.Time `json:"cleared_at,omitempty"`
}

// EndTime is the wall-clock instant the lock expires.
func (i *Investment) EndTime() time.Time {
	return i.StartTime.Add(time.Duration(i.DurationMinutes) * time.Minute)
}

// Outstanding reports whether the investment still holds its scheme slot.
func (i *Investment) Outstanding() bool {
	return i.Status == InvestmentStatusActive || i.Status == InvestmentStatusReadyToWithdraw
}

// OwnedInvestment tags an investment with its owner for the operator
// aggregation view. The copy is read-only, denormalized state.
type OwnedInvestment struct {
	Investment
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
}

type ApplyRequest struct {
	SchemeID int64           `json:"scheme_id" validate:"required,gt=0"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
}

type WithdrawRequest struct {
	InvestmentID string `json:"investment_id" validate:"required"`
}

// PortfolioResponse is the client dashboard view: the reconciled slice plus
// the summary figures derived from it.
type PortfolioResponse struct {
	Investments    []*Investment   `json:"investments"`
	ActiveCount    int             `json:"active_count"`
	TotalInvested  decimal.Decimal `json:"total_invested"`
	TotalReturns   decimal.Decimal `json:"total_returns"`
	CompletedCount int             `json:"completed_count"`
}
