package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

type FinancialFactorRepository interface {
	Create(ctx context.Context, factor *model.FinancialFactor) error
	Update(ctx context.Context, factor *model.FinancialFactor) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FinancialFactor, error)
	List(ctx context.Context, page, limit int) ([]model.FinancialFactor, int64, error)
	FindByScopeAndYear(ctx context.Context, scope string, year int) ([]model.FinancialFactor, error)
	CountActiveDuplicates(ctx context.Context, factor *model.FinancialFactor) (int64, error)
	CurrentVersions(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)
}

type financialFactorRepository struct {
	db *gorm.DB
}

func NewFinancialFactorRepository(db *gorm.DB) FinancialFactorRepository {
	return &financialFactorRepository{db: db}
}

func (r *financialFactorRepository) Create(ctx context.Context, factor *model.FinancialFactor) error {
	return GetDB(ctx, r.db).Create(factor).Error
}

func (r *financialFactorRepository) Update(ctx context.Context, factor *model.FinancialFactor) error {
	return GetDB(ctx, r.db).Save(factor).Error
}

func (r *financialFactorRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.FinancialFactor, error) {
	var factor model.FinancialFactor
	if err := GetDB(ctx, r.db).First(&factor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &factor, nil
}

func (r *financialFactorRepository) List(ctx context.Context, page, limit int) ([]model.FinancialFactor, int64, error) {
	var factors []model.FinancialFactor
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.FinancialFactor{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("financial_year desc, scope, factor_type").
		Offset(offset).Limit(limit).Find(&factors).Error; err != nil {
		return nil, 0, err
	}

	return factors, total, nil
}

// FindByScopeAndYear loads every non-deleted factor row for one scope and
// financial year. Frozen-ness and ambiguity are judged by the engine's
// registry, not here.
func (r *financialFactorRepository) FindByScopeAndYear(ctx context.Context, scope string, year int) ([]model.FinancialFactor, error) {
	var factors []model.FinancialFactor
	if err := GetDB(ctx, r.db).
		Where("scope = ? AND financial_year = ?", scope, year).
		Find(&factors).Error; err != nil {
		return nil, err
	}
	return factors, nil
}

// CountActiveDuplicates counts other non-deleted rows holding the same
// (factor_type, scope, financial_year) tuple; at most one may exist.
func (r *financialFactorRepository) CountActiveDuplicates(ctx context.Context, factor *model.FinancialFactor) (int64, error) {
	query := GetDB(ctx, r.db).Model(&model.FinancialFactor{}).
		Where("factor_type = ? AND scope = ? AND financial_year = ?",
			factor.FactorType, factor.Scope, factor.FinancialYear)
	if factor.ID != uuid.Nil {
		query = query.Where("id != ?", factor.ID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *financialFactorRepository) CurrentVersions(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	return currentVersions(GetDB(ctx, r.db), &model.FinancialFactor{}, ids)
}
