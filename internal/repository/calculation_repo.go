package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

type CalculationRepository interface {
	Create(ctx context.Context, calc *model.InsuranceCalculation) error
	InvalidateForReceptionItem(ctx context.Context, receptionItemID uuid.UUID) error
	ListByReceptionItem(ctx context.Context, receptionItemID uuid.UUID) ([]model.InsuranceCalculation, error)
	FindValidByReceptionItem(ctx context.Context, receptionItemID uuid.UUID) (*model.InsuranceCalculation, error)
}

type calculationRepository struct {
	db *gorm.DB
}

func NewCalculationRepository(db *gorm.DB) CalculationRepository {
	return &calculationRepository{db: db}
}

// Create inserts the calculation and its owned coverage lines in one shot
// (gorm cascades the association).
func (r *calculationRepository) Create(ctx context.Context, calc *model.InsuranceCalculation) error {
	return GetDB(ctx, r.db).Create(calc).Error
}

// InvalidateForReceptionItem flips every still-valid calculation of the
// reception item to is_valid=false. The rows themselves stay untouched; this
// flag is the only mutation the table ever sees.
func (r *calculationRepository) InvalidateForReceptionItem(ctx context.Context, receptionItemID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.InsuranceCalculation{}).
		Where("reception_item_id = ? AND is_valid = ?", receptionItemID, true).
		Update("is_valid", false).Error
}

func (r *calculationRepository) ListByReceptionItem(ctx context.Context, receptionItemID uuid.UUID) ([]model.InsuranceCalculation, error) {
	var calcs []model.InsuranceCalculation
	if err := GetDB(ctx, r.db).
		Where("reception_item_id = ?", receptionItemID).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sequence asc") }).
		Order("created_at desc").
		Find(&calcs).Error; err != nil {
		return nil, err
	}
	return calcs, nil
}

func (r *calculationRepository) FindValidByReceptionItem(ctx context.Context, receptionItemID uuid.UUID) (*model.InsuranceCalculation, error) {
	var calc model.InsuranceCalculation
	if err := GetDB(ctx, r.db).
		Where("reception_item_id = ? AND is_valid = ?", receptionItemID, true).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sequence asc") }).
		First(&calc).Error; err != nil {
		return nil, err
	}
	return &calc, nil
}
