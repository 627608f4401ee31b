package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

type InsurerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Insurer, error)
	FindPlanByID(ctx context.Context, id uuid.UUID) (*model.InsurancePlan, error)
	List(ctx context.Context, page, limit int) ([]model.Insurer, int64, error)
}

type insurerRepository struct {
	db *gorm.DB
}

func NewInsurerRepository(db *gorm.DB) InsurerRepository {
	return &insurerRepository{db: db}
}

func (r *insurerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Insurer, error) {
	var insurer model.Insurer
	if err := GetDB(ctx, r.db).First(&insurer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &insurer, nil
}

func (r *insurerRepository) FindPlanByID(ctx context.Context, id uuid.UUID) (*model.InsurancePlan, error) {
	var plan model.InsurancePlan
	if err := GetDB(ctx, r.db).Preload("Insurer").First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *insurerRepository) List(ctx context.Context, page, limit int) ([]model.Insurer, int64, error) {
	var insurers []model.Insurer
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Insurer{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name").Offset(offset).Limit(limit).Find(&insurers).Error; err != nil {
		return nil, 0, err
	}

	return insurers, total, nil
}
