package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

type BusinessRuleRepository interface {
	Create(ctx context.Context, rule *model.BusinessRule) error
	Update(ctx context.Context, rule *model.BusinessRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.BusinessRule, error)
	List(ctx context.Context, page, limit int) ([]model.BusinessRule, int64, error)
	FindCandidates(ctx context.Context, planID, serviceID, categoryID uuid.UUID, asOf time.Time) ([]model.BusinessRule, error)
	CurrentVersions(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)
}

type businessRuleRepository struct {
	db *gorm.DB
}

func NewBusinessRuleRepository(db *gorm.DB) BusinessRuleRepository {
	return &businessRuleRepository{db: db}
}

func (r *businessRuleRepository) Create(ctx context.Context, rule *model.BusinessRule) error {
	return GetDB(ctx, r.db).Create(rule).Error
}

func (r *businessRuleRepository) Update(ctx context.Context, rule *model.BusinessRule) error {
	return GetDB(ctx, r.db).Save(rule).Error
}

func (r *businessRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.BusinessRule{}).Error
}

func (r *businessRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.BusinessRule, error) {
	var rule model.BusinessRule
	if err := GetDB(ctx, r.db).First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *businessRuleRepository) List(ctx context.Context, page, limit int) ([]model.BusinessRule, int64, error) {
	var rules []model.BusinessRule
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.BusinessRule{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("priority desc, created_at desc").
		Offset(offset).Limit(limit).Find(&rules).Error; err != nil {
		return nil, 0, err
	}

	return rules, total, nil
}

// FindCandidates loads the active rules whose scope matches the adjudication
// context (NULL scope column = wildcard) and whose window contains asOf.
func (r *businessRuleRepository) FindCandidates(ctx context.Context, planID, serviceID, categoryID uuid.UUID, asOf time.Time) ([]model.BusinessRule, error) {
	var rules []model.BusinessRule
	if err := GetDB(ctx, r.db).
		Where("(insurance_plan_id IS NULL OR insurance_plan_id = ?)", planID).
		Where("(service_id IS NULL OR service_id = ?)", serviceID).
		Where("(service_category_id IS NULL OR service_category_id = ?)", categoryID).
		Scopes(ActiveWindow(asOf)).
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *businessRuleRepository) CurrentVersions(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	return currentVersions(GetDB(ctx, r.db), &model.BusinessRule{}, ids)
}
