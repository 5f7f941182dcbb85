// Package engine owns the investment lifecycle state machine. Every function
// here is pure: the client loop and the operator aggregation both call the
// same code against their own copy of the stored facts, which is what lets
// two unsynchronized processes derive identical state.
package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lockvest/investment-engine/internal/domain"
	apperrors "github.com/lockvest/investment-engine/pkg/errors"
	"github.com/lockvest/investment-engine/pkg/payout"
)

// Reconcile recomputes the timer-derived fields of an investment from its
// start time and the supplied clock reading. Remaining time is always derived
// fresh from the wall-clock anchor, never decremented from the previous value,
// so the function is idempotent and immune to suspension drift. A withdrawn
// investment is terminal and returned unchanged.
func Reconcile(inv domain.Investment, now time.Time) domain.Investment {
	if inv.Status == domain.InvestmentStatusWithdrawn {
		return inv
	}

	remaining := inv.EndTime().Sub(now).Milliseconds()
	if remaining <= 0 {
		inv.TimeRemainingMS = 0
		inv.CanWithdraw = true
		inv.Status = domain.InvestmentStatusReadyToWithdraw
	} else {
		inv.TimeRemainingMS = remaining
		inv.CanWithdraw = false
		inv.Status = domain.InvestmentStatusActive
	}

	return inv
}

// Commit validates a new commitment against the scheme and the owner's
// existing investments, and returns the new investment together with the
// application record to append to the scheme history. The scheme's rate and
// duration are snapshotted: the investment is a contract frozen at commitment
// time and later scheme edits never reach it.
func Commit(scheme *domain.Scheme, existing []*domain.Investment, amount decimal.Decimal, user *domain.User, now time.Time) (*domain.Investment, *domain.Application, error) {
	if scheme == nil || !scheme.IsLive {
		var id int64
		if scheme != nil {
			id = scheme.ID
		}
		return nil, nil, apperrors.WrapSchemeNotFound(id)
	}

	rate, err := payout.ParseRate(scheme.ReturnRate)
	if err != nil {
		return nil, nil, apperrors.WrapInvalidRateFormat(scheme.ReturnRate)
	}

	if amount.LessThan(scheme.MinAmount) || amount.GreaterThan(scheme.MaxAmount) {
		return nil, nil, apperrors.WrapAmountOutOfRange(
			amount.String(), scheme.MinAmount.String(), scheme.MaxAmount.String())
	}

	for _, inv := range existing {
		if inv == nil {
			continue
		}
		if inv.SchemeID == scheme.ID && inv.Outstanding() {
			return nil, nil, apperrors.WrapDuplicateActiveCommitment(scheme.ID)
		}
	}

	inv := &domain.Investment{
		ID:              uuid.NewString(),
		SchemeID:        scheme.ID,
		SchemeName:      scheme.Name,
		Amount:          amount,
		ReturnRate:      scheme.ReturnRate,
		DurationMinutes: scheme.DurationMinutes,
		StartTime:       now,
		AppliedAt:       now,
		TimeRemainingMS: int64(scheme.DurationMinutes) * 60_000,
		CanWithdraw:     false,
		Status:          domain.InvestmentStatusActive,
		ExpectedReturn:  payout.Return(amount, rate),
		ExpectedTotal:   payout.Total(amount, rate),
	}

	app := &domain.Application{
		ID:        uuid.New(),
		SchemeID:  scheme.ID,
		UserID:    user.ID,
		UserName:  user.Name,
		Amount:    amount,
		Status:    domain.ApplicationStatusActive,
		AppliedAt: now,
	}

	return inv, app, nil
}

// Withdraw moves a matured investment to its terminal state and emits the
// pending withdrawal claim for the operator workflow. The claim shares the
// investment's identifier; that correlation is the invariant the approval
// write-back relies on.
func Withdraw(inv domain.Investment, user *domain.User, now time.Time) (domain.Investment, *domain.WithdrawalClaim, error) {
	if inv.Status != domain.InvestmentStatusReadyToWithdraw {
		return inv, nil, apperrors.WrapNotMatured(inv.ID)
	}

	rate, err := payout.ParseRate(inv.ReturnRate)
	if err != nil {
		return inv, nil, apperrors.WrapInvalidRateFormat(inv.ReturnRate)
	}

	actualReturn := payout.Return(inv.Amount, rate)
	total := payout.Total(inv.Amount, rate)
	withdrawnAt := now

	inv.Status = domain.InvestmentStatusWithdrawn
	inv.TimeRemainingMS = 0
	inv.CanWithdraw = false
	inv.WithdrawnAt = &withdrawnAt
	inv.ActualReturn = actualReturn
	inv.WithdrawnAmount = total
	inv.WalletAddress = user.WalletAddress

	claim := &domain.WithdrawalClaim{
		ID:             inv.ID,
		UserID:         user.ID,
		UserName:       user.Name,
		SchemeName:     inv.SchemeName,
		Amount:         total,
		ReturnRate:     inv.ReturnRate,
		ExpectedReturn: actualReturn,
		WalletAddress:  user.WalletAddress,
		AppliedAt:      inv.AppliedAt,
		RequestedAt:    now,
		Status:         domain.ClaimStatusPending,
	}

	return inv, claim, nil
}
