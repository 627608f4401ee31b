package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.PatientInsuranceEnrollment) error
	Update(ctx context.Context, enrollment *model.PatientInsuranceEnrollment) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PatientInsuranceEnrollment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, page, limit int) ([]model.PatientInsuranceEnrollment, int64, error)
	FindActiveByPatient(ctx context.Context, patientID uuid.UUID, asOf time.Time) ([]model.PatientInsuranceEnrollment, error)
	CountPrimaryConflicts(ctx context.Context, enrollment *model.PatientInsuranceEnrollment) (int64, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *model.PatientInsuranceEnrollment) error {
	return GetDB(ctx, r.db).Create(enrollment).Error
}

func (r *enrollmentRepository) Update(ctx context.Context, enrollment *model.PatientInsuranceEnrollment) error {
	return GetDB(ctx, r.db).Save(enrollment).Error
}

func (r *enrollmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.PatientInsuranceEnrollment{}).Error
}

func (r *enrollmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PatientInsuranceEnrollment, error) {
	var enrollment model.PatientInsuranceEnrollment
	if err := GetDB(ctx, r.db).Preload("Insurer").Preload("Plan").
		First(&enrollment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, page, limit int) ([]model.PatientInsuranceEnrollment, int64, error) {
	var enrollments []model.PatientInsuranceEnrollment
	var total int64

	query := GetDB(ctx, r.db).Model(&model.PatientInsuranceEnrollment{}).Where("patient_id = ?", patientID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Preload("Insurer").Preload("Plan").
		Order("priority asc").Offset(offset).Limit(limit).
		Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}

// FindActiveByPatient returns the payer list in adjudication order: active
// enrollments covering asOf, primary (lowest priority value) first.
func (r *enrollmentRepository) FindActiveByPatient(ctx context.Context, patientID uuid.UUID, asOf time.Time) ([]model.PatientInsuranceEnrollment, error) {
	var enrollments []model.PatientInsuranceEnrollment
	if err := GetDB(ctx, r.db).
		Where("patient_id = ?", patientID).
		Scopes(ActiveWindow(asOf)).
		Preload("Insurer").Preload("Plan").
		Order("priority asc").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

// CountPrimaryConflicts counts other active enrollments of the patient holding
// the same priority with an overlapping date range; only one enrollment may be
// primary at a time.
func (r *enrollmentRepository) CountPrimaryConflicts(ctx context.Context, enrollment *model.PatientInsuranceEnrollment) (int64, error) {
	query := GetDB(ctx, r.db).Model(&model.PatientInsuranceEnrollment{}).
		Where("patient_id = ? AND priority = ? AND is_active = ?", enrollment.PatientID, enrollment.Priority, true)
	if enrollment.ID != uuid.Nil {
		query = query.Where("id != ?", enrollment.ID)
	}
	query = query.Where("(end_date IS NULL OR end_date > ?)", enrollment.StartDate)
	if enrollment.EndDate != nil {
		query = query.Where("start_date < ?", *enrollment.EndDate)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
