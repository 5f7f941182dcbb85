package repository

import (
	"context"

	"github.com/lockvest/investment-engine/internal/domain"
)

// SchemeRepository defines the interface for scheme catalog data operations
type SchemeRepository interface {
	// Create inserts a new scheme, assigning the next identifier
	// (max existing + 1). Identifiers are never reused.
	Create(ctx context.Context, scheme *domain.Scheme) error

	// GetByID retrieves a scheme by its identifier
	GetByID(ctx context.Context, id int64) (*domain.Scheme, error)

	// List retrieves every scheme, live and archived
	List(ctx context.Context) ([]*domain.Scheme, error)

	// ListLive retrieves live schemes only
	ListLive(ctx context.Context) ([]*domain.Scheme, error)

	// Update replaces a scheme's mutable fields
	Update(ctx context.Context, scheme *domain.Scheme) error

	// AppendApplication records a commitment event in the scheme history
	AppendApplication(ctx context.Context, app *domain.Application) error

	// ApplicationsBySchemeID retrieves the scheme's application history
	ApplicationsBySchemeID(ctx context.Context, schemeID int64) ([]*domain.Application, error)

	// SetApplicationStatus updates the owner's active application for a scheme
	SetApplicationStatus(ctx context.Context, schemeID, userID int64, status string) error
}

// UserRepository defines the interface for the fixed identity roster
type UserRepository interface {
	// GetByCredentials resolves a login attempt against the roster
	GetByCredentials(ctx context.Context, username, password, role string) (*domain.User, error)

	// GetByID retrieves a roster user
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// ListClients retrieves every client-role user. The roster is fixed;
	// owners are enumerated, never discovered.
	ListClients(ctx context.Context) ([]*domain.User, error)
}

// LedgerRepository is the per-user durable key/value store of investments.
// Each user's slice is read and written whole; the owning client loop is the
// single steady-state writer, with the operator approval write-back as the
// one narrow exception.
type LedgerRepository interface {
	// GetSlice loads one user's investments. A missing or malformed payload
	// is a recoverable condition yielding an empty slice, never an error.
	GetSlice(ctx context.Context, userID int64) ([]*domain.Investment, error)

	// SaveSlice atomically replaces one user's investments
	SaveSlice(ctx context.Context, userID int64, investments []*domain.Investment) error
}

// ClaimRepository is the platform-wide durable record of withdrawal claims
type ClaimRepository interface {
	// List loads every claim; malformed payloads recover to empty
	List(ctx context.Context) ([]*domain.WithdrawalClaim, error)

	// Save atomically replaces the claim list
	Save(ctx context.Context, claims []*domain.WithdrawalClaim) error

	// Append adds a claim to the list
	Append(ctx context.Context, claim *domain.WithdrawalClaim) error
}
