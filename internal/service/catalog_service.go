package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/lockvest/investment-engine/internal/domain"
	"github.com/lockvest/investment-engine/internal/repository"
	apperrors "github.com/lockvest/investment-engine/pkg/errors"
	"github.com/lockvest/investment-engine/pkg/payout"
)

// CatalogService manages the shared scheme catalog. All mutation comes from
// operator actions; schemes are archived, never deleted, and their
// application history survives every edit.
type CatalogService struct {
	Schemes repository.SchemeRepository
}

func NewCatalogService(schemes repository.SchemeRepository) *CatalogService {
	return &CatalogService{Schemes: schemes}
}

func (s *CatalogService) Create(ctx context.Context, req *domain.CreateSchemeRequest) (*domain.Scheme, error) {
	if _, err := payout.ParseRate(req.ReturnRate); err != nil {
		return nil, apperrors.WrapInvalidRateFormat(req.ReturnRate)
	}
	if req.MinAmount.GreaterThan(req.MaxAmount) {
		return nil, apperrors.WrapAmountOutOfRange(
			req.MinAmount.String(), req.MinAmount.String(), req.MaxAmount.String())
	}

	scheme := &domain.Scheme{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		ReturnRate:      req.ReturnRate,
		MinAmount:       req.MinAmount,
		MaxAmount:       req.MaxAmount,
		IsLive:          req.IsLive,
	}

	if err := s.Schemes.Create(ctx, scheme); err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	return scheme, nil
}

func (s *CatalogService) ToggleLive(ctx context.Context, id int64) (*domain.Scheme, error) {
	scheme, err := s.getScheme(ctx, id)
	if err != nil {
		return nil, err
	}

	scheme.IsLive = !scheme.IsLive
	if err := s.Schemes.Update(ctx, scheme); err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	return scheme, nil
}

// Edit replaces a scheme's mutable fields. The identifier and the application
// history are untouched; in-flight investments keep their snapshots.
func (s *CatalogService) Edit(ctx context.Context, id int64, patch *domain.SchemePatch) (*domain.Scheme, error) {
	if _, err := payout.ParseRate(patch.ReturnRate); err != nil {
		return nil, apperrors.WrapInvalidRateFormat(patch.ReturnRate)
	}
	if patch.MinAmount.GreaterThan(patch.MaxAmount) {
		return nil, apperrors.WrapAmountOutOfRange(
			patch.MinAmount.String(), patch.MinAmount.String(), patch.MaxAmount.String())
	}

	scheme, err := s.getScheme(ctx, id)
	if err != nil {
		return nil, err
	}

	scheme.Name = patch.Name
	scheme.Description = patch.Description
	scheme.DurationMinutes = patch.DurationMinutes
	scheme.ReturnRate = patch.ReturnRate
	scheme.MinAmount = patch.MinAmount
	scheme.MaxAmount = patch.MaxAmount
	scheme.IsLive = patch.IsLive

	if err := s.Schemes.Update(ctx, scheme); err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	return scheme, nil
}

func (s *CatalogService) List(ctx context.Context) ([]*domain.Scheme, error) {
	schemes, err := s.Schemes.List(ctx)
	if err != nil {
		return nil, apperrors.WrapStorageError(err)
	}
	return schemes, nil
}

func (s *CatalogService) LiveSchemes(ctx context.Context) ([]*domain.Scheme, error) {
	schemes, err := s.Schemes.ListLive(ctx)
	if err != nil {
		return nil, apperrors.WrapStorageError(err)
	}
	return schemes, nil
}

// History returns a scheme together with its accumulated applications and the
// total amount ever committed to it.
func (s *CatalogService) History(ctx context.Context, id int64) (*domain.SchemeHistoryResponse, error) {
	scheme, err := s.getScheme(ctx, id)
	if err != nil {
		return nil, err
	}

	apps, err := s.Schemes.ApplicationsBySchemeID(ctx, id)
	if err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	total := decimal.Zero
	for _, app := range apps {
		total = total.Add(app.Amount)
	}

	return &domain.SchemeHistoryResponse{
		Scheme:       scheme,
		Applications: apps,
		TotalApplied: total,
	}, nil
}

func (s *CatalogService) getScheme(ctx context.Context, id int64) (*domain.Scheme, error) {
	scheme, err := s.Schemes.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.WrapSchemeNotFound(id)
	}
	if err != nil {
		return nil, apperrors.WrapStorageError(err)
	}
	return scheme, nil
}
