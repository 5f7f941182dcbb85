package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lockvest/investment-engine/internal/domain"
	"github.com/lockvest/investment-engine/internal/engine"
	"github.com/lockvest/investment-engine/internal/repository"
	apperrors "github.com/lockvest/investment-engine/pkg/errors"
)

// OperatorService aggregates every roster user's ledger slice and manages the
// claim-approval workflow. It re-derives lifecycle state with the same engine
// the client loop uses instead of trusting persisted status fields, because
// the two loops run on unsynchronized clocks.
type OperatorService struct {
	Ledger  repository.LedgerRepository
	Claims  repository.ClaimRepository
	Schemes repository.SchemeRepository
	Users   repository.UserRepository

	// guard is shared with the client service in the server process so the
	// approval write-back serializes against the tick loop and the handlers.
	guard *LedgerGuard
}

func NewOperatorService(
	ledger repository.LedgerRepository,
	claims repository.ClaimRepository,
	schemes repository.SchemeRepository,
	users repository.UserRepository,
	guard *LedgerGuard,
) *OperatorService {
	return &OperatorService{
		Ledger:  ledger,
		Claims:  claims,
		Schemes: schemes,
		Users:   users,
		guard:   guard,
	}
}

// AggregateInvestments unions every known client's investments, tagged with
// their owner and reconciled against the supplied clock reading. The read is
// a re-derivation; nothing is written back.
func (s *OperatorService) AggregateInvestments(ctx context.Context, now time.Time) ([]*domain.OwnedInvestment, error) {
	clients, err := s.Users.ListClients(ctx)
	if err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	aggregated := make([]*domain.OwnedInvestment, 0)
	for _, client := range clients {
		investments, err := s.Ledger.GetSlice(ctx, client.ID)
		if err != nil {
			// One unreadable slice must not abort the aggregation pass.
			logrus.WithError(err).WithField("user_id", client.ID).
				Error("loading ledger slice for aggregation")
			continue
		}

		for _, inv := range investments {
			if inv == nil || inv.ID == "" {
				logrus.WithField("user_id", client.ID).Warn("skipping malformed ledger record")
				continue
			}
			current := engine.Reconcile(*inv, now)
			aggregated = append(aggregated, &domain.OwnedInvestment{
				Investment: current,
				UserID:     client.ID,
				UserName:   client.Name,
			})
		}
	}

	return aggregated, nil
}

// Tick is the operator loop's beat: one aggregation pass with a summary log.
func (s *OperatorService) Tick(ctx context.Context, now time.Time) {
	aggregated, err := s.AggregateInvestments(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("operator reconciliation tick failed")
		return
	}

	var outstanding, matured int
	for _, inv := range aggregated {
		switch inv.Status {
		case domain.InvestmentStatusActive:
			outstanding++
		case domain.InvestmentStatusReadyToWithdraw:
			matured++
		}
	}

	logrus.WithFields(logrus.Fields{
		"investments": len(aggregated),
		"active":      outstanding,
		"matured":     matured,
	}).Debug("operator reconciliation tick")
}

// ApproveClaim clears a pending withdrawal claim and maps the approval back
// into the owning user's ledger slice. Approving an already-cleared claim is
// a no-op failure, which keeps the operation idempotent and auditable.
func (s *OperatorService) ApproveClaim(ctx context.Context, claimID string, now time.Time) (*domain.WithdrawalClaim, error) {
	// First pass resolves the owner so the locks can be taken in the same
	// user-then-claims order the withdrawal path uses.
	owner, err := s.findClaimOwner(ctx, claimID)
	if err != nil {
		return nil, err
	}

	unlockUser := s.guard.LockUser(owner)
	defer unlockUser()

	unlockClaims := s.guard.LockClaims()
	claim, err := s.clearClaim(ctx, claimID, now)
	unlockClaims()
	if err != nil {
		return nil, err
	}

	if err := s.writeBackApproval(ctx, claim, now); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"claim_id": claim.ID,
		"user_id":  claim.UserID,
		"amount":   claim.Amount.String(),
	}).Info("withdrawal claim cleared")

	return claim, nil
}

func (s *OperatorService) findClaimOwner(ctx context.Context, claimID string) (int64, error) {
	claims, err := s.Claims.List(ctx)
	if err != nil {
		return 0, apperrors.WrapStorageError(err)
	}

	for _, c := range claims {
		if c.ID == claimID {
			return c.UserID, nil
		}
	}
	return 0, apperrors.WrapClaimNotFound(claimID)
}

// clearClaim re-reads the claim list under the claims lock, so the cleared
// check holds against any append or approval that slipped in after the
// owner lookup.
func (s *OperatorService) clearClaim(ctx context.Context, claimID string, now time.Time) (*domain.WithdrawalClaim, error) {
	claims, err := s.Claims.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	var claim *domain.WithdrawalClaim
	for _, c := range claims {
		if c.ID == claimID {
			claim = c
			break
		}
	}
	if claim == nil {
		return nil, apperrors.WrapClaimNotFound(claimID)
	}
	if claim.Status == domain.ClaimStatusCleared {
		return nil, apperrors.WrapClaimAlreadyCleared(claimID)
	}

	clearedAt := now
	claim.Status = domain.ClaimStatusCleared
	claim.ClearedAt = &clearedAt

	if err := s.Claims.Save(ctx, claims); err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	return claim, nil
}

// writeBackApproval is the one place cross-component mutation occurs: the
// cleared claim is mirrored into the owning user's ledger slice.
func (s *OperatorService) writeBackApproval(ctx context.Context, claim *domain.WithdrawalClaim, now time.Time) error {
	investments, err := s.Ledger.GetSlice(ctx, claim.UserID)
	if err != nil {
		return apperrors.WrapStorageError(err)
	}

	changed := false
	for _, inv := range investments {
		if inv == nil || inv.ID != claim.ID {
			continue
		}
		if inv.Status != domain.InvestmentStatusWithdrawn {
			inv.Status = domain.InvestmentStatusWithdrawn
			inv.TimeRemainingMS = 0
			inv.CanWithdraw = false
		}
		if inv.ClearedAt == nil {
			clearedAt := now
			inv.ClearedAt = &clearedAt
		}
		changed = true
		break
	}

	if !changed {
		logrus.WithFields(logrus.Fields{
			"claim_id": claim.ID,
			"user_id":  claim.UserID,
		}).Warn("cleared claim has no matching ledger record")
		return nil
	}

	if err := s.Ledger.SaveSlice(ctx, claim.UserID, investments); err != nil {
		return apperrors.WrapStorageError(err)
	}

	return nil
}

// ListClaims returns the platform-wide claim record in the order the claims
// were filed.
func (s *OperatorService) ListClaims(ctx context.Context) ([]*domain.WithdrawalClaim, error) {
	claims, err := s.Claims.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStorageError(err)
	}
	return claims, nil
}

// Stats assembles the operator overview across the whole roster.
func (s *OperatorService) Stats(ctx context.Context, now time.Time) (*domain.PlatformStats, error) {
	schemes, err := s.Schemes.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	clients, err := s.Users.ListClients(ctx)
	if err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	aggregated, err := s.AggregateInvestments(ctx, now)
	if err != nil {
		return nil, err
	}

	claims, err := s.Claims.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	stats := &domain.PlatformStats{
		TotalSchemes:  len(schemes),
		TotalClients:  len(clients),
		TotalInvested: decimal.Zero,
	}
	for _, scheme := range schemes {
		if scheme.IsLive {
			stats.ActiveSchemes++
		}
	}
	for _, inv := range aggregated {
		stats.TotalInvested = stats.TotalInvested.Add(inv.Amount)
		if inv.Outstanding() {
			stats.OutstandingRows++
		}
	}
	for _, claim := range claims {
		if claim.Status == domain.ClaimStatusPending {
			stats.PendingClaims++
		} else {
			stats.ClearedClaims++
		}
	}

	return stats, nil
}
