package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lockvest/investment-engine/internal/domain"
	"github.com/lockvest/investment-engine/internal/engine"
	"github.com/lockvest/investment-engine/internal/repository"
	apperrors "github.com/lockvest/investment-engine/pkg/errors"
)

// ClientService drives one user's slice of the ledger through the lifecycle
// engine. It carries no cadence of its own: Tick is invoked by whatever host
// loop schedules it, once per userID per beat.
type ClientService struct {
	Ledger  repository.LedgerRepository
	Claims  repository.ClaimRepository
	Schemes repository.SchemeRepository
	Users   repository.UserRepository

	// guard serializes whole-slice read-modify-write cycles; without it a
	// tick and a concurrent withdrawal can erase each other's writes.
	guard *LedgerGuard

	// ProcessingDelay simulates confirmation latency before a commit or a
	// withdrawal resolves. The wait is fixed and non-cancelable.
	ProcessingDelay time.Duration
}

func NewClientService(
	ledger repository.LedgerRepository,
	claims repository.ClaimRepository,
	schemes repository.SchemeRepository,
	users repository.UserRepository,
	guard *LedgerGuard,
	processingDelay time.Duration,
) *ClientService {
	return &ClientService{
		Ledger:          ledger,
		Claims:          claims,
		Schemes:         schemes,
		Users:           users,
		guard:           guard,
		ProcessingDelay: processingDelay,
	}
}

// Tick reconciles every non-terminal investment in one user's slice against
// the supplied clock reading and persists the whole slice back. Malformed
// records are skipped, not fatal to the batch.
func (s *ClientService) Tick(ctx context.Context, userID int64, now time.Time) error {
	unlock := s.guard.LockUser(userID)
	defer unlock()

	investments, err := s.Ledger.GetSlice(ctx, userID)
	if err != nil {
		return apperrors.WrapStorageError(err)
	}

	reconciled := make([]*domain.Investment, 0, len(investments))
	for _, inv := range investments {
		if inv == nil || inv.ID == "" {
			logrus.WithField("user_id", userID).Warn("skipping malformed ledger record")
			continue
		}
		updated := engine.Reconcile(*inv, now)
		reconciled = append(reconciled, &updated)
	}

	if err := s.Ledger.SaveSlice(ctx, userID, reconciled); err != nil {
		return apperrors.WrapStorageError(err)
	}

	return nil
}

// TickAll runs Tick over the fixed client roster. Each user's batch is
// independent; one failure never aborts the others.
func (s *ClientService) TickAll(ctx context.Context, now time.Time) {
	clients, err := s.Users.ListClients(ctx)
	if err != nil {
		logrus.WithError(err).Error("loading client roster for reconciliation tick")
		return
	}

	for _, client := range clients {
		if err := s.Tick(ctx, client.ID, now); err != nil {
			logrus.WithError(err).WithField("user_id", client.ID).
				Error("client reconciliation tick failed")
		}
	}
}

// ApplyForScheme commits an amount to a live scheme on the user's behalf,
// appending the application record to the scheme history.
func (s *ClientService) ApplyForScheme(ctx context.Context, user *domain.User, schemeID int64, amount decimal.Decimal) (*domain.Investment, error) {
	s.simulateProcessing()
	now := time.Now()

	unlock := s.guard.LockUser(user.ID)
	defer unlock()

	scheme, err := s.Schemes.GetByID(ctx, schemeID)
	if errors.Is(err, sql.ErrNoRows) {
		scheme = nil
	} else if err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	investments, err := s.Ledger.GetSlice(ctx, user.ID)
	if err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	inv, app, err := engine.Commit(scheme, investments, amount, user, now)
	if err != nil {
		return nil, err
	}

	if err := s.Ledger.SaveSlice(ctx, user.ID, append(investments, inv)); err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	// History is reporting, not contract state; a failed append must not
	// unwind the committed investment.
	if err := s.Schemes.AppendApplication(ctx, app); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"scheme_id": schemeID,
			"user_id":   user.ID,
		}).Warn("recording scheme application failed")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":       user.ID,
		"scheme_id":     schemeID,
		"investment_id": inv.ID,
		"amount":        amount.String(),
	}).Info("investment committed")

	return inv, nil
}

// RequestWithdrawal withdraws a matured investment and forwards the emitted
// claim to the platform-wide claims record. This is the single user-invoked
// side-effecting transition; everything else is time-driven.
func (s *ClientService) RequestWithdrawal(ctx context.Context, user *domain.User, investmentID string) (*domain.Investment, *domain.WithdrawalClaim, error) {
	s.simulateProcessing()
	now := time.Now()

	unlock := s.guard.LockUser(user.ID)
	defer unlock()

	investments, err := s.Ledger.GetSlice(ctx, user.ID)
	if err != nil {
		return nil, nil, apperrors.WrapStorageError(err)
	}

	idx := -1
	for i, inv := range investments {
		if inv != nil && inv.ID == investmentID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil, apperrors.WrapInvestmentNotFound(investmentID)
	}

	// Re-derive maturity from the wall clock rather than trusting the last
	// persisted tick; a matured investment is withdrawable even if no tick
	// has run since expiry.
	current := engine.Reconcile(*investments[idx], now)

	withdrawn, claim, err := engine.Withdraw(current, user, now)
	if err != nil {
		return nil, nil, err
	}

	investments[idx] = &withdrawn
	if err := s.Ledger.SaveSlice(ctx, user.ID, investments); err != nil {
		return nil, nil, apperrors.WrapStorageError(err)
	}

	unlockClaims := s.guard.LockClaims()
	err = s.Claims.Append(ctx, claim)
	unlockClaims()
	if err != nil {
		return nil, nil, apperrors.WrapStorageError(err)
	}

	if err := s.Schemes.SetApplicationStatus(ctx, withdrawn.SchemeID, user.ID, domain.ApplicationStatusWithdrawn); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"scheme_id": withdrawn.SchemeID,
			"user_id":   user.ID,
		}).Warn("updating scheme application status failed")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":       user.ID,
		"investment_id": withdrawn.ID,
		"payout":        withdrawn.WithdrawnAmount.String(),
	}).Info("withdrawal requested")

	return &withdrawn, claim, nil
}

// Portfolio returns the user's reconciled slice plus dashboard summary
// figures. The read is derived fresh; nothing is persisted.
func (s *ClientService) Portfolio(ctx context.Context, userID int64, now time.Time) (*domain.PortfolioResponse, error) {
	investments, err := s.Ledger.GetSlice(ctx, userID)
	if err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	resp := &domain.PortfolioResponse{
		Investments:   make([]*domain.Investment, 0, len(investments)),
		TotalInvested: decimal.Zero,
		TotalReturns:  decimal.Zero,
	}

	for _, inv := range investments {
		if inv == nil || inv.ID == "" {
			continue
		}
		current := engine.Reconcile(*inv, now)
		resp.Investments = append(resp.Investments, &current)

		resp.TotalInvested = resp.TotalInvested.Add(current.Amount)
		switch {
		case current.Outstanding():
			resp.ActiveCount++
		case current.Status == domain.InvestmentStatusWithdrawn:
			resp.CompletedCount++
			resp.TotalReturns = resp.TotalReturns.Add(current.ActualReturn)
		}
	}

	return resp, nil
}

func (s *ClientService) simulateProcessing() {
	if s.ProcessingDelay > 0 {
		time.Sleep(s.ProcessingDelay)
	}
}
