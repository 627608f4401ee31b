package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

type TariffFilter struct {
	InsurerID *uuid.UUID
	ServiceID *uuid.UUID
	Page      int
	Limit     int
}

type TariffRepository interface {
	Create(ctx context.Context, tariff *model.Tariff) error
	Update(ctx context.Context, tariff *model.Tariff) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tariff, error)
	List(ctx context.Context, filter TariffFilter) ([]model.Tariff, int64, error)
	FindCandidates(ctx context.Context, insurerID, serviceID uuid.UUID, asOf time.Time) ([]model.Tariff, error)
	CountPriorityConflicts(ctx context.Context, tariff *model.Tariff) (int64, error)
	CurrentVersions(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error)
}

type tariffRepository struct {
	db *gorm.DB
}

func NewTariffRepository(db *gorm.DB) TariffRepository {
	return &tariffRepository{db: db}
}

func (r *tariffRepository) Create(ctx context.Context, tariff *model.Tariff) error {
	return GetDB(ctx, r.db).Create(tariff).Error
}

func (r *tariffRepository) Update(ctx context.Context, tariff *model.Tariff) error {
	return GetDB(ctx, r.db).Save(tariff).Error
}

func (r *tariffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Tariff{}).Error
}

func (r *tariffRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Tariff, error) {
	var tariff model.Tariff
	if err := GetDB(ctx, r.db).First(&tariff, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tariff, nil
}

func (r *tariffRepository) List(ctx context.Context, filter TariffFilter) ([]model.Tariff, int64, error) {
	var tariffs []model.Tariff
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Tariff{})
	if filter.InsurerID != nil {
		query = query.Where("insurer_id = ?", *filter.InsurerID)
	}
	if filter.ServiceID != nil {
		query = query.Where("service_id = ?", *filter.ServiceID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Preload("Insurer").Preload("Service").
		Order("priority asc, start_date desc").
		Offset(offset).Limit(filter.Limit).
		Find(&tariffs).Error; err != nil {
		return nil, 0, err
	}

	return tariffs, total, nil
}

// FindCandidates loads the active tariff rows of one (insurer, service) pair
// whose window contains asOf. Priority selection happens in the engine.
func (r *tariffRepository) FindCandidates(ctx context.Context, insurerID, serviceID uuid.UUID, asOf time.Time) ([]model.Tariff, error) {
	var tariffs []model.Tariff
	if err := GetDB(ctx, r.db).
		Where("insurer_id = ? AND service_id = ?", insurerID, serviceID).
		Scopes(ActiveWindow(asOf)).
		Find(&tariffs).Error; err != nil {
		return nil, err
	}
	return tariffs, nil
}

// CountPriorityConflicts counts active rows of the same (insurer, service)
// pair that share the tariff's priority and overlap its validity window.
// Priority must be unique within overlapping windows.
func (r *tariffRepository) CountPriorityConflicts(ctx context.Context, tariff *model.Tariff) (int64, error) {
	query := GetDB(ctx, r.db).Model(&model.Tariff{}).
		Where("insurer_id = ? AND service_id = ? AND priority = ? AND is_active = ?",
			tariff.InsurerID, tariff.ServiceID, tariff.Priority, true)

	if tariff.ID != uuid.Nil {
		query = query.Where("id != ?", tariff.ID)
	}
	if tariff.StartDate != nil {
		query = query.Where("(end_date IS NULL OR end_date > ?)", *tariff.StartDate)
	}
	if tariff.EndDate != nil {
		query = query.Where("(start_date IS NULL OR start_date < ?)", *tariff.EndDate)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *tariffRepository) CurrentVersions(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	return currentVersions(GetDB(ctx, r.db), &model.Tariff{}, ids)
}
