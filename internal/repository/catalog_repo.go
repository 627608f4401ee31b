package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

// CatalogRepository reads the service catalog the adjudicator consumes:
// services with their categories, departments, and per-department coefficient
// overrides.
type CatalogRepository interface {
	CreateService(ctx context.Context, svc *model.MedicalService) error
	UpdateService(ctx context.Context, svc *model.MedicalService) error
	FindServiceByID(ctx context.Context, id uuid.UUID) (*model.MedicalService, error)
	ListServices(ctx context.Context, page, limit int) ([]model.MedicalService, int64, error)
	FindDepartmentByID(ctx context.Context, id uuid.UUID) (*model.Department, error)
	FindDepartmentOverride(ctx context.Context, serviceID, departmentID uuid.UUID) (*model.DepartmentServiceCoefficient, error)
	UpsertDepartmentOverride(ctx context.Context, override *model.DepartmentServiceCoefficient) error
	FindPatientByID(ctx context.Context, id uuid.UUID) (*model.Patient, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateService(ctx context.Context, svc *model.MedicalService) error {
	return GetDB(ctx, r.db).Create(svc).Error
}

func (r *catalogRepository) UpdateService(ctx context.Context, svc *model.MedicalService) error {
	return GetDB(ctx, r.db).Save(svc).Error
}

func (r *catalogRepository) FindServiceByID(ctx context.Context, id uuid.UUID) (*model.MedicalService, error) {
	var svc model.MedicalService
	if err := GetDB(ctx, r.db).Preload("Category").First(&svc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *catalogRepository) ListServices(ctx context.Context, page, limit int) ([]model.MedicalService, int64, error) {
	var services []model.MedicalService
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.MedicalService{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Category").Order("code").
		Offset(offset).Limit(limit).Find(&services).Error; err != nil {
		return nil, 0, err
	}

	return services, total, nil
}

func (r *catalogRepository) FindDepartmentByID(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	var dept model.Department
	if err := GetDB(ctx, r.db).First(&dept, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

// FindDepartmentOverride returns nil without error when no override exists;
// absence just means the service's own coefficients apply.
func (r *catalogRepository) FindDepartmentOverride(ctx context.Context, serviceID, departmentID uuid.UUID) (*model.DepartmentServiceCoefficient, error) {
	var override model.DepartmentServiceCoefficient
	err := GetDB(ctx, r.db).
		Where("service_id = ? AND department_id = ?", serviceID, departmentID).
		First(&override).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &override, nil
}

func (r *catalogRepository) UpsertDepartmentOverride(ctx context.Context, override *model.DepartmentServiceCoefficient) error {
	db := GetDB(ctx, r.db)

	var existing model.DepartmentServiceCoefficient
	err := db.Where("service_id = ? AND department_id = ?", override.ServiceID, override.DepartmentID).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.Create(override).Error
		}
		return err
	}

	existing.TechnicalCoefficient = override.TechnicalCoefficient
	existing.ProfessionalCoefficient = override.ProfessionalCoefficient
	return db.Save(&existing).Error
}

func (r *catalogRepository) FindPatientByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var patient model.Patient
	if err := GetDB(ctx, r.db).First(&patient, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}
