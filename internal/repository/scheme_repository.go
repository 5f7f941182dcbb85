package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lockvest/investment-engine/internal/domain"
)

type schemeRepository struct {
	db *sqlx.DB
}

func NewSchemeRepository(db *sqlx.DB) SchemeRepository {
	return &schemeRepository{db: db}
}

func (r *schemeRepository) Create(ctx context.Context, scheme *domain.Scheme) error {
	query := `
		INSERT INTO schemes (id, name, description, duration_minutes, return_rate, min_amount, max_amount, is_live, created_at, updated_at)
		VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM schemes), $1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	now := time.Now()
	scheme.CreatedAt = now
	scheme.UpdatedAt = now

	return r.db.QueryRowContext(ctx, query,
		scheme.Name,
		scheme.Description,
		scheme.DurationMinutes,
		scheme.ReturnRate,
		scheme.MinAmount,
		scheme.MaxAmount,
		scheme.IsLive,
		scheme.CreatedAt,
		scheme.UpdatedAt,
	).Scan(&scheme.ID)
}

func (r *schemeRepository) GetByID(ctx context.Context, id int64) (*domain.Scheme, error) {
	query := `
		SELECT id, name, description, duration_minutes, return_rate, min_amount, max_amount, is_live, created_at, updated_at
		FROM schemes
		WHERE id = $1
	`

	var scheme domain.Scheme
	if err := r.db.GetContext(ctx, &scheme, query, id); err != nil {
		return nil, err
	}

	return &scheme, nil
}

func (r *schemeRepository) List(ctx context.Context) ([]*domain.Scheme, error) {
	query := `
		SELECT id, name, description, duration_minutes, return_rate, min_amount, max_amount, is_live, created_at, updated_at
		FROM schemes
		ORDER BY id
	`

	var schemes []*domain.Scheme
	if err := r.db.SelectContext(ctx, &schemes, query); err != nil {
		return nil, err
	}

	return schemes, nil
}

func (r *schemeRepository) ListLive(ctx context.Context) ([]*domain.Scheme, error) {
	query := `
		SELECT id, name, description, duration_minutes, return_rate, min_amount, max_amount, is_live, created_at, updated_at
		FROM schemes
		WHERE is_live = TRUE
		ORDER BY id
	`

	var schemes []*domain.Scheme
	if err := r.db.SelectContext(ctx, &schemes, query); err != nil {
		return nil, err
	}

	return schemes, nil
}

func (r *schemeRepository) Update(ctx context.Context, scheme *domain.Scheme) error {
	query := `
		UPDATE schemes
		SET name = $2, description = $3, duration_minutes = $4, return_rate = $5, min_amount = $6, max_amount = $7, is_live = $8, updated_at = $9
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		scheme.ID,
		scheme.Name,
		scheme.Description,
		scheme.DurationMinutes,
		scheme.ReturnRate,
		scheme.MinAmount,
		scheme.MaxAmount,
		scheme.IsLive,
		time.Now(),
	)

	return err
}

func (r *schemeRepository) AppendApplication(ctx context.Context, app *domain.Application) error {
	query := `
		INSERT INTO scheme_applications (id, scheme_id, user_id, user_name, amount, status, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		app.ID,
		app.SchemeID,
		app.UserID,
		app.UserName,
		app.Amount,
		app.Status,
		app.AppliedAt,
	)

	return err
}

func (r *schemeRepository) ApplicationsBySchemeID(ctx context.Context, schemeID int64) ([]*domain.Application, error) {
	query := `
		SELECT id, scheme_id, user_id, user_name, amount, status, applied_at
		FROM scheme_applications
		WHERE scheme_id = $1
		ORDER BY applied_at
	`

	var apps []*domain.Application
	if err := r.db.SelectContext(ctx, &apps, query, schemeID); err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *schemeRepository) SetApplicationStatus(ctx context.Context, schemeID, userID int64, status string) error {
	// At most one outstanding investment per (user, scheme) means at most one
	// active application row matches.
	query := `
		UPDATE scheme_applications
		SET status = $3
		WHERE scheme_id = $1 AND user_id = $2 AND status = 'active'
	`

	_, err := r.db.ExecContext(ctx, query, schemeID, userID, status)
	return err
}
