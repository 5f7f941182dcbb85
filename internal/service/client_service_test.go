package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lockvest/investment-engine/internal/domain"
	"github.com/lockvest/investment-engine/internal/repository"
	apperrors "github.com/lockvest/investment-engine/pkg/errors"
)

func testClientUser() *domain.User {
	return &domain.User{
		ID:            1,
		Username:      "vishal",
		Name:          "Vishal Sheoran",
		Role:          domain.RoleClient,
		WalletAddress: "0xABC123DEF4567890ABC123DEF4567890",
	}
}

func boostScheme() *domain.Scheme {
	return &domain.Scheme{
		ID:              1,
		Name:            "1 Hour Boost",
		DurationMinutes: 60,
		ReturnRate:      "1%",
		MinAmount:       decimal.NewFromInt(1000),
		MaxAmount:       decimal.NewFromInt(100000),
		IsLive:          true,
	}
}

func newClientService(ledger repository.LedgerRepository, claims *fakeClaims, schemes *MockSchemeRepository, users *MockUserRepository) *ClientService {
	return NewClientService(ledger, claims, schemes, users, NewLedgerGuard(), 0)
}

func TestTickReconcilesSlice(t *testing.T) {
	ledger := newFakeLedger()
	svc := newClientService(ledger, newFakeClaims(), &MockSchemeRepository{}, &MockUserRepository{})

	start := time.Now().Add(-2 * time.Hour)
	require.NoError(t, ledger.SaveSlice(context.Background(), 1, []*domain.Investment{
		{
			ID:              "inv-1",
			SchemeID:        1,
			Amount:          decimal.NewFromInt(1000),
			ReturnRate:      "1%",
			DurationMinutes: 60,
			StartTime:       start,
			Status:          domain.InvestmentStatusActive,
			TimeRemainingMS: 3_600_000,
		},
		{
			ID:              "inv-2",
			SchemeID:        2,
			Amount:          decimal.NewFromInt(5000),
			ReturnRate:      "6%",
			DurationMinutes: 360,
			StartTime:       time.Now().Add(-time.Minute),
			Status:          domain.InvestmentStatusActive,
		},
	}))

	require.NoError(t, svc.Tick(context.Background(), 1, time.Now()))

	stored, err := ledger.GetSlice(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	assert.Equal(t, domain.InvestmentStatusReadyToWithdraw, stored[0].Status)
	assert.Equal(t, int64(0), stored[0].TimeRemainingMS)
	assert.True(t, stored[0].CanWithdraw)

	assert.Equal(t, domain.InvestmentStatusActive, stored[1].Status)
	assert.Positive(t, stored[1].TimeRemainingMS)
}

func TestTickSkipsMalformedRecords(t *testing.T) {
	ledger := newFakeLedger()
	svc := newClientService(ledger, newFakeClaims(), &MockSchemeRepository{}, &MockUserRepository{})

	require.NoError(t, ledger.SaveSlice(context.Background(), 1, []*domain.Investment{
		{
			ID:              "inv-1",
			SchemeID:        1,
			DurationMinutes: 60,
			StartTime:       time.Now(),
			Status:          domain.InvestmentStatusActive,
		},
		{}, // record with no identifier
	}))

	require.NoError(t, svc.Tick(context.Background(), 1, time.Now()))

	stored, err := ledger.GetSlice(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "inv-1", stored[0].ID)
}

// stalledSaveLedger blocks the first SaveSlice until released, holding a
// reconciliation tick open mid read-modify-write.
type stalledSaveLedger struct {
	*fakeLedger
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (l *stalledSaveLedger) SaveSlice(ctx context.Context, userID int64, investments []*domain.Investment) error {
	l.once.Do(func() {
		close(l.entered)
		<-l.release
	})
	return l.fakeLedger.SaveSlice(ctx, userID, investments)
}

func TestTickDoesNotEraseConcurrentWithdrawal(t *testing.T) {
	// A tick that has read the slice must not write a stale copy over a
	// withdrawal that lands in between; the stale write would revert the
	// investment to ready_to_withdraw and allow a duplicate claim.
	ledger := &stalledSaveLedger{
		fakeLedger: newFakeLedger(),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	require.NoError(t, ledger.fakeLedger.SaveSlice(context.Background(), 1, []*domain.Investment{
		{
			ID:              "inv-1",
			SchemeID:        1,
			SchemeName:      "1 Hour Boost",
			Amount:          decimal.NewFromInt(1000),
			ReturnRate:      "1%",
			DurationMinutes: 60,
			StartTime:       time.Now().Add(-2 * time.Hour),
			Status:          domain.InvestmentStatusActive,
		},
	}))

	claims := newFakeClaims()
	schemes := &MockSchemeRepository{}
	schemes.On("SetApplicationStatus", mock.Anything, int64(1), int64(1), domain.ApplicationStatusWithdrawn).Return(nil)

	svc := newClientService(ledger, claims, schemes, &MockUserRepository{})

	tickDone := make(chan error, 1)
	go func() {
		tickDone <- svc.Tick(context.Background(), 1, time.Now())
	}()
	<-ledger.entered

	withdrawDone := make(chan error, 1)
	go func() {
		_, _, err := svc.RequestWithdrawal(context.Background(), testClientUser(), "inv-1")
		withdrawDone <- err
	}()

	close(ledger.release)
	require.NoError(t, <-tickDone)
	require.NoError(t, <-withdrawDone)

	stored, err := ledger.GetSlice(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.InvestmentStatusWithdrawn, stored[0].Status)

	recorded, err := claims.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recorded, 1)

	// The terminal state holds: no second claim can be filed for the same
	// investment.
	_, _, err = svc.RequestWithdrawal(context.Background(), testClientUser(), "inv-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotMatured)

	recorded, err = claims.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recorded, 1)
}

func TestApplyForScheme(t *testing.T) {
	tests := []struct {
		name          string
		amount        decimal.Decimal
		setupMocks    func(*MockSchemeRepository)
		seed          []*domain.Investment
		expectedError error
	}{
		{
			name:   "Success - first commitment",
			amount: decimal.NewFromInt(1000),
			setupMocks: func(schemes *MockSchemeRepository) {
				schemes.On("GetByID", mock.Anything, int64(1)).Return(boostScheme(), nil)
				schemes.On("AppendApplication", mock.Anything, mock.MatchedBy(func(app *domain.Application) bool {
					return app.SchemeID == 1 && app.UserName == "Vishal Sheoran"
				})).Return(nil)
			},
		},
		{
			name:   "Failure - scheme not found",
			amount: decimal.NewFromInt(1000),
			setupMocks: func(schemes *MockSchemeRepository) {
				schemes.On("GetByID", mock.Anything, int64(1)).Return(nil, sql.ErrNoRows)
			},
			expectedError: apperrors.ErrSchemeNotFound,
		},
		{
			name:   "Failure - amount below minimum",
			amount: decimal.NewFromInt(500),
			setupMocks: func(schemes *MockSchemeRepository) {
				schemes.On("GetByID", mock.Anything, int64(1)).Return(boostScheme(), nil)
			},
			expectedError: apperrors.ErrAmountOutOfRange,
		},
		{
			name:   "Failure - duplicate outstanding commitment",
			amount: decimal.NewFromInt(1000),
			setupMocks: func(schemes *MockSchemeRepository) {
				schemes.On("GetByID", mock.Anything, int64(1)).Return(boostScheme(), nil)
			},
			seed: []*domain.Investment{
				{ID: "prior", SchemeID: 1, Status: domain.InvestmentStatusActive},
			},
			expectedError: apperrors.ErrDuplicateActiveCommitment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newFakeLedger()
			schemes := &MockSchemeRepository{}
			tt.setupMocks(schemes)
			if tt.seed != nil {
				require.NoError(t, ledger.SaveSlice(context.Background(), 1, tt.seed))
			}

			svc := newClientService(ledger, newFakeClaims(), schemes, &MockUserRepository{})

			inv, err := svc.ApplyForScheme(context.Background(), testClientUser(), 1, tt.amount)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, inv)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, inv)
			assert.Equal(t, domain.InvestmentStatusActive, inv.Status)

			stored, err := ledger.GetSlice(context.Background(), 1)
			require.NoError(t, err)
			require.Len(t, stored, len(tt.seed)+1)

			schemes.AssertExpectations(t)
		})
	}
}

func TestApplyForSchemeRejectsBackToBack(t *testing.T) {
	// Scenario: two commits for the same user and scheme while the first is
	// still active.
	ledger := newFakeLedger()
	schemes := &MockSchemeRepository{}
	schemes.On("GetByID", mock.Anything, int64(1)).Return(boostScheme(), nil)
	schemes.On("AppendApplication", mock.Anything, mock.Anything).Return(nil)

	svc := newClientService(ledger, newFakeClaims(), schemes, &MockUserRepository{})

	_, err := svc.ApplyForScheme(context.Background(), testClientUser(), 1, decimal.NewFromInt(1000))
	require.NoError(t, err)

	_, err = svc.ApplyForScheme(context.Background(), testClientUser(), 1, decimal.NewFromInt(2000))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateActiveCommitment)
}

func TestRequestWithdrawal(t *testing.T) {
	matured := func() *domain.Investment {
		return &domain.Investment{
			ID:              "inv-1",
			SchemeID:        1,
			SchemeName:      "1 Hour Boost",
			Amount:          decimal.NewFromInt(1000),
			ReturnRate:      "1%",
			DurationMinutes: 60,
			StartTime:       time.Now().Add(-2 * time.Hour),
			AppliedAt:       time.Now().Add(-2 * time.Hour),
			Status:          domain.InvestmentStatusActive,
		}
	}

	t.Run("Success - matured investment", func(t *testing.T) {
		ledger := newFakeLedger()
		claims := newFakeClaims()
		schemes := &MockSchemeRepository{}
		schemes.On("SetApplicationStatus", mock.Anything, int64(1), int64(1), domain.ApplicationStatusWithdrawn).Return(nil)

		require.NoError(t, ledger.SaveSlice(context.Background(), 1, []*domain.Investment{matured()}))
		svc := newClientService(ledger, claims, schemes, &MockUserRepository{})

		inv, claim, err := svc.RequestWithdrawal(context.Background(), testClientUser(), "inv-1")
		require.NoError(t, err)

		assert.Equal(t, domain.InvestmentStatusWithdrawn, inv.Status)
		assert.True(t, inv.WithdrawnAmount.Equal(decimal.NewFromInt(1010)))

		require.NotNil(t, claim)
		assert.Equal(t, "inv-1", claim.ID)
		assert.Equal(t, domain.ClaimStatusPending, claim.Status)

		stored, err := ledger.GetSlice(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, domain.InvestmentStatusWithdrawn, stored[0].Status)

		recorded, err := claims.List(context.Background())
		require.NoError(t, err)
		require.Len(t, recorded, 1)
		assert.Equal(t, "inv-1", recorded[0].ID)

		schemes.AssertExpectations(t)
	})

	t.Run("Failure - not matured", func(t *testing.T) {
		ledger := newFakeLedger()
		locked := matured()
		locked.StartTime = time.Now().Add(-time.Minute)
		require.NoError(t, ledger.SaveSlice(context.Background(), 1, []*domain.Investment{locked}))

		svc := newClientService(ledger, newFakeClaims(), &MockSchemeRepository{}, &MockUserRepository{})

		_, _, err := svc.RequestWithdrawal(context.Background(), testClientUser(), "inv-1")
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrNotMatured)
	})

	t.Run("Failure - unknown investment", func(t *testing.T) {
		svc := newClientService(newFakeLedger(), newFakeClaims(), &MockSchemeRepository{}, &MockUserRepository{})

		_, _, err := svc.RequestWithdrawal(context.Background(), testClientUser(), "missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvestmentNotFound)
	})
}

func TestPortfolio(t *testing.T) {
	ledger := newFakeLedger()
	withdrawnAt := time.Now().Add(-time.Hour)

	require.NoError(t, ledger.SaveSlice(context.Background(), 1, []*domain.Investment{
		{
			ID:              "inv-1",
			SchemeID:        1,
			Amount:          decimal.NewFromInt(1000),
			ReturnRate:      "1%",
			DurationMinutes: 60,
			StartTime:       time.Now().Add(-time.Minute),
			Status:          domain.InvestmentStatusActive,
		},
		{
			ID:              "inv-2",
			SchemeID:        2,
			Amount:          decimal.NewFromInt(5000),
			ReturnRate:      "6%",
			DurationMinutes: 360,
			StartTime:       withdrawnAt.Add(-6 * time.Hour),
			Status:          domain.InvestmentStatusWithdrawn,
			WithdrawnAt:     &withdrawnAt,
			ActualReturn:    decimal.NewFromInt(300),
			WithdrawnAmount: decimal.NewFromInt(5300),
		},
	}))

	svc := newClientService(ledger, newFakeClaims(), &MockSchemeRepository{}, &MockUserRepository{})

	portfolio, err := svc.Portfolio(context.Background(), 1, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, portfolio.ActiveCount)
	assert.Equal(t, 1, portfolio.CompletedCount)
	assert.True(t, portfolio.TotalInvested.Equal(decimal.NewFromInt(6000)))
	assert.True(t, portfolio.TotalReturns.Equal(decimal.NewFromInt(300)))
	require.Len(t, portfolio.Investments, 2)
}
