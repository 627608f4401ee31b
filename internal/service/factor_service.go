package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/repository"
)

// --- DTOs ---

type FinancialFactorRequest struct {
	FactorType    string `json:"factor_type" binding:"required,oneof=TECHNICAL PROFESSIONAL GENERAL"`
	Scope         string `json:"scope" binding:"required,oneof=PUBLIC PRIVATE CHARITY"`
	FinancialYear int    `json:"financial_year" binding:"required"`
	Value         string `json:"value" binding:"required"`          // decimal string, Rials
	EffectiveFrom string `json:"effective_from" binding:"required"` // YYYY-MM-DD
	EffectiveTo   string `json:"effective_to"`                      // YYYY-MM-DD, nullable
}

type FinancialFactorResponse struct {
	ID            string  `json:"id"`
	FactorType    string  `json:"factor_type"`
	Scope         string  `json:"scope"`
	FinancialYear int     `json:"financial_year"`
	Value         string  `json:"value"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to"`
	IsFrozen      bool    `json:"is_frozen"`
	FrozenAt      *string `json:"frozen_at"`
	Version       int     `json:"version"`
	CreatedAt     string  `json:"created_at"`
}

// --- Interface ---

type FinancialFactorService interface {
	CreateFactor(ctx context.Context, req FinancialFactorRequest, userID string) (FinancialFactorResponse, error)
	UpdateFactor(ctx context.Context, id string, req FinancialFactorRequest, userID string) (FinancialFactorResponse, error)
	FreezeFactor(ctx context.Context, id string, userID string) (FinancialFactorResponse, error)
	ListFactors(ctx context.Context, page, limit int) ([]FinancialFactorResponse, int64, error)
}

type financialFactorService struct {
	db   *gorm.DB
	repo repository.FinancialFactorRepository
}

func NewFinancialFactorService(db *gorm.DB, repo repository.FinancialFactorRepository) FinancialFactorService {
	return &financialFactorService{db: db, repo: repo}
}

// --- Implementation ---

func (s *financialFactorService) CreateFactor(ctx context.Context, req FinancialFactorRequest, userID string) (FinancialFactorResponse, error) {
	factor, err := factorFromRequest(req)
	if err != nil {
		return FinancialFactorResponse{}, err
	}

	if err := s.checkDuplicate(ctx, factor); err != nil {
		return FinancialFactorResponse{}, err
	}

	factor.Version = 1
	if err := s.repo.Create(ctx, factor); err != nil {
		return FinancialFactorResponse{}, fmt.Errorf("failed to create financial factor: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionCreateFactor, factor.ID.String(),
		fmt.Sprintf("%s/%s %d", factor.FactorType, factor.Scope, factor.FinancialYear), req)

	return toFactorResponse(*factor), nil
}

func (s *financialFactorService) UpdateFactor(ctx context.Context, id string, req FinancialFactorRequest, userID string) (FinancialFactorResponse, error) {
	factorID, err := uuid.Parse(id)
	if err != nil {
		return FinancialFactorResponse{}, fmt.Errorf("invalid factor id: %w", err)
	}

	existing, err := s.repo.FindByID(ctx, factorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return FinancialFactorResponse{}, fmt.Errorf("financial factor not found")
		}
		return FinancialFactorResponse{}, fmt.Errorf("failed to fetch financial factor: %w", err)
	}

	// Frozen rows are append-only: the year's value is authoritative for all
	// billing and can never be edited, only superseded by next year's row.
	if existing.IsFrozen {
		return FinancialFactorResponse{}, fmt.Errorf("financial factor is frozen and cannot be edited")
	}

	updated, err := factorFromRequest(req)
	if err != nil {
		return FinancialFactorResponse{}, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.Version = existing.Version + 1

	if err := s.checkDuplicate(ctx, updated); err != nil {
		return FinancialFactorResponse{}, err
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return FinancialFactorResponse{}, fmt.Errorf("failed to update financial factor: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionUpdateFactor, updated.ID.String(),
		fmt.Sprintf("%s/%s %d v%d", updated.FactorType, updated.Scope, updated.FinancialYear, updated.Version), req)

	return toFactorResponse(*updated), nil
}

func (s *financialFactorService) FreezeFactor(ctx context.Context, id string, userID string) (FinancialFactorResponse, error) {
	factorID, err := uuid.Parse(id)
	if err != nil {
		return FinancialFactorResponse{}, fmt.Errorf("invalid factor id: %w", err)
	}

	factor, err := s.repo.FindByID(ctx, factorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return FinancialFactorResponse{}, fmt.Errorf("financial factor not found")
		}
		return FinancialFactorResponse{}, fmt.Errorf("failed to fetch financial factor: %w", err)
	}

	if factor.IsFrozen {
		return toFactorResponse(*factor), nil // freezing twice is a no-op
	}

	now := time.Now()
	factor.IsFrozen = true
	factor.FrozenAt = &now
	factor.Version++

	if err := s.repo.Update(ctx, factor); err != nil {
		return FinancialFactorResponse{}, fmt.Errorf("failed to freeze financial factor: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionFreezeFactor, factor.ID.String(),
		fmt.Sprintf("%s/%s %d", factor.FactorType, factor.Scope, factor.FinancialYear), nil)

	return toFactorResponse(*factor), nil
}

func (s *financialFactorService) ListFactors(ctx context.Context, page, limit int) ([]FinancialFactorResponse, int64, error) {
	factors, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch financial factors: %w", err)
	}

	res := make([]FinancialFactorResponse, 0, len(factors))
	for _, f := range factors {
		res = append(res, toFactorResponse(f))
	}
	return res, total, nil
}

// --- Helpers ---

func (s *financialFactorService) checkDuplicate(ctx context.Context, factor *model.FinancialFactor) error {
	count, err := s.repo.CountActiveDuplicates(ctx, factor)
	if err != nil {
		return fmt.Errorf("failed to check duplicates: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("a factor for %s/%s year %d already exists",
			factor.FactorType, factor.Scope, factor.FinancialYear)
	}
	return nil
}

func factorFromRequest(req FinancialFactorRequest) (*model.FinancialFactor, error) {
	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}
	if !value.IsPositive() {
		return nil, fmt.Errorf("invalid value: must be positive")
	}

	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid effective_from date format (expected YYYY-MM-DD): %w", err)
	}

	factor := &model.FinancialFactor{
		FactorType:    req.FactorType,
		Scope:         req.Scope,
		FinancialYear: req.FinancialYear,
		Value:         value,
		EffectiveFrom: effectiveFrom,
	}

	if req.EffectiveTo != "" {
		effectiveTo, err := time.Parse("2006-01-02", req.EffectiveTo)
		if err != nil {
			return nil, fmt.Errorf("invalid effective_to date format (expected YYYY-MM-DD): %w", err)
		}
		factor.EffectiveTo = &effectiveTo
	}

	return factor, nil
}

func toFactorResponse(f model.FinancialFactor) FinancialFactorResponse {
	res := FinancialFactorResponse{
		ID:            f.ID.String(),
		FactorType:    f.FactorType,
		Scope:         f.Scope,
		FinancialYear: f.FinancialYear,
		Value:         f.Value.StringFixed(0),
		EffectiveFrom: f.EffectiveFrom.Format("2006-01-02"),
		IsFrozen:      f.IsFrozen,
		Version:       f.Version,
		CreatedAt:     f.CreatedAt.Format(time.RFC3339),
	}
	if f.EffectiveTo != nil {
		s := f.EffectiveTo.Format("2006-01-02")
		res.EffectiveTo = &s
	}
	if f.FrozenAt != nil {
		s := f.FrozenAt.Format(time.RFC3339)
		res.FrozenAt = &s
	}
	return res
}
