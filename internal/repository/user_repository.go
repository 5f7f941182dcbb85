package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/lockvest/investment-engine/internal/domain"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByCredentials(ctx context.Context, username, password, role string) (*domain.User, error) {
	// Plain-text credential match against the seeded roster; the platform
	// holds no real accounts.
	query := `
		SELECT id, username, password, name, role, wallet_address, created_at
		FROM users
		WHERE username = $1 AND password = $2 AND role = $3
	`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, username, password, role); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT id, username, password, name, role, wallet_address, created_at
		FROM users
		WHERE id = $1
	`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) ListClients(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT id, username, password, name, role, wallet_address, created_at
		FROM users
		WHERE role = 'client'
		ORDER BY id
	`

	var users []*domain.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, err
	}

	return users, nil
}
