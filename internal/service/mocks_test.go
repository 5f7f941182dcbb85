package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/lockvest/investment-engine/internal/domain"
)

type MockSchemeRepository struct {
	mock.Mock
}

func (m *MockSchemeRepository) Create(ctx context.Context, scheme *domain.Scheme) error {
	args := m.Called(ctx, scheme)
	return args.Error(0)
}

func (m *MockSchemeRepository) GetByID(ctx context.Context, id int64) (*domain.Scheme, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Scheme), args.Error(1)
}

func (m *MockSchemeRepository) List(ctx context.Context) ([]*domain.Scheme, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Scheme), args.Error(1)
}

func (m *MockSchemeRepository) ListLive(ctx context.Context) ([]*domain.Scheme, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Scheme), args.Error(1)
}

func (m *MockSchemeRepository) Update(ctx context.Context, scheme *domain.Scheme) error {
	args := m.Called(ctx, scheme)
	return args.Error(0)
}

func (m *MockSchemeRepository) AppendApplication(ctx context.Context, app *domain.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockSchemeRepository) ApplicationsBySchemeID(ctx context.Context, schemeID int64) ([]*domain.Application, error) {
	args := m.Called(ctx, schemeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Application), args.Error(1)
}

func (m *MockSchemeRepository) SetApplicationStatus(ctx context.Context, schemeID, userID int64, status string) error {
	args := m.Called(ctx, schemeID, userID, status)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByCredentials(ctx context.Context, username, password, role string) (*domain.User, error) {
	args := m.Called(ctx, username, password, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListClients(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

// fakeLedger is an in-memory stand-in for the per-user KV store, with the
// same whole-slice read/write semantics as the Redis implementation.
type fakeLedger struct {
	mu     sync.Mutex
	slices map[int64][]*domain.Investment
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{slices: make(map[int64][]*domain.Investment)}
}

func (f *fakeLedger) GetSlice(_ context.Context, userID int64) ([]*domain.Investment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := f.slices[userID]
	out := make([]*domain.Investment, len(stored))
	for i, inv := range stored {
		if inv == nil {
			continue
		}
		copied := *inv
		out[i] = &copied
	}
	return out, nil
}

func (f *fakeLedger) SaveSlice(_ context.Context, userID int64, investments []*domain.Investment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := make([]*domain.Investment, len(investments))
	for i, inv := range investments {
		if inv == nil {
			continue
		}
		copied := *inv
		stored[i] = &copied
	}
	f.slices[userID] = stored
	return nil
}

type fakeClaims struct {
	mu     sync.Mutex
	claims []*domain.WithdrawalClaim
}

func newFakeClaims() *fakeClaims {
	return &fakeClaims{}
}

func (f *fakeClaims) List(_ context.Context) ([]*domain.WithdrawalClaim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*domain.WithdrawalClaim, len(f.claims))
	for i, c := range f.claims {
		copied := *c
		out[i] = &copied
	}
	return out, nil
}

func (f *fakeClaims) Save(_ context.Context, claims []*domain.WithdrawalClaim) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := make([]*domain.WithdrawalClaim, len(claims))
	for i, c := range claims {
		copied := *c
		stored[i] = &copied
	}
	f.claims = stored
	return nil
}

func (f *fakeClaims) Append(ctx context.Context, claim *domain.WithdrawalClaim) error {
	existing, err := f.List(ctx)
	if err != nil {
		return err
	}
	return f.Save(ctx, append(existing, claim))
}
