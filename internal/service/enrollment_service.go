package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/repository"
)

// --- DTOs ---

type EnrollmentRequest struct {
	PatientID              string `json:"patient_id" binding:"required"`
	InsurerID              string `json:"insurer_id" binding:"required"`
	PlanID                 string `json:"plan_id" binding:"required"`
	Priority               int    `json:"priority" binding:"required,min=1"`
	StartDate              string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate                string `json:"end_date"`
	SupplementaryInsurerID string `json:"supplementary_insurer_id"`
	SupplementaryPlanID    string `json:"supplementary_plan_id"`
	IsActive               *bool  `json:"is_active"`
}

type EnrollmentResponse struct {
	ID                     string  `json:"id"`
	PatientID              string  `json:"patient_id"`
	InsurerID              string  `json:"insurer_id"`
	InsurerName            string  `json:"insurer_name,omitempty"`
	PlanID                 string  `json:"plan_id"`
	PlanName               string  `json:"plan_name,omitempty"`
	Priority               int     `json:"priority"`
	StartDate              string  `json:"start_date"`
	EndDate                *string `json:"end_date"`
	SupplementaryInsurerID *string `json:"supplementary_insurer_id"`
	SupplementaryPlanID    *string `json:"supplementary_plan_id"`
	IsActive               bool    `json:"is_active"`
}

// --- Interface ---

type EnrollmentService interface {
	CreateEnrollment(ctx context.Context, req EnrollmentRequest, userID string) (EnrollmentResponse, error)
	UpdateEnrollment(ctx context.Context, id string, req EnrollmentRequest, userID string) (EnrollmentResponse, error)
	DeleteEnrollment(ctx context.Context, id string, userID string) error
	ListByPatient(ctx context.Context, patientID string, page, limit int) ([]EnrollmentResponse, int64, error)
}

type enrollmentService struct {
	db          *gorm.DB
	repo        repository.EnrollmentRepository
	insurerRepo repository.InsurerRepository
}

func NewEnrollmentService(db *gorm.DB, repo repository.EnrollmentRepository, insurerRepo repository.InsurerRepository) EnrollmentService {
	return &enrollmentService{db: db, repo: repo, insurerRepo: insurerRepo}
}

// --- Implementation ---

func (s *enrollmentService) CreateEnrollment(ctx context.Context, req EnrollmentRequest, userID string) (EnrollmentResponse, error) {
	enrollment, err := enrollmentFromRequest(req)
	if err != nil {
		return EnrollmentResponse{}, err
	}

	if err := s.checkPlanOwnership(ctx, enrollment); err != nil {
		return EnrollmentResponse{}, err
	}
	if err := s.checkPriorityConflict(ctx, enrollment); err != nil {
		return EnrollmentResponse{}, err
	}

	if err := s.repo.Create(ctx, enrollment); err != nil {
		return EnrollmentResponse{}, fmt.Errorf("failed to create enrollment: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionCreateEnrollment, enrollment.ID.String(),
		"enrollment for patient "+enrollment.PatientID.String(), req)

	return toEnrollmentResponse(*enrollment), nil
}

func (s *enrollmentService) UpdateEnrollment(ctx context.Context, id string, req EnrollmentRequest, userID string) (EnrollmentResponse, error) {
	enrollmentID, err := uuid.Parse(id)
	if err != nil {
		return EnrollmentResponse{}, fmt.Errorf("invalid enrollment id: %w", err)
	}

	existing, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EnrollmentResponse{}, fmt.Errorf("enrollment not found")
		}
		return EnrollmentResponse{}, fmt.Errorf("failed to fetch enrollment: %w", err)
	}

	updated, err := enrollmentFromRequest(req)
	if err != nil {
		return EnrollmentResponse{}, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	if err := s.checkPlanOwnership(ctx, updated); err != nil {
		return EnrollmentResponse{}, err
	}
	if err := s.checkPriorityConflict(ctx, updated); err != nil {
		return EnrollmentResponse{}, err
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return EnrollmentResponse{}, fmt.Errorf("failed to update enrollment: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionUpdateEnrollment, updated.ID.String(),
		"enrollment for patient "+updated.PatientID.String(), req)

	return toEnrollmentResponse(*updated), nil
}

func (s *enrollmentService) DeleteEnrollment(ctx context.Context, id string, userID string) error {
	enrollmentID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid enrollment id: %w", err)
	}

	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("enrollment not found")
		}
		return fmt.Errorf("failed to fetch enrollment: %w", err)
	}

	if err := s.repo.Delete(ctx, enrollmentID); err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionDeleteEnrollment, enrollment.ID.String(),
		"enrollment for patient "+enrollment.PatientID.String(), map[string]string{"deleted_id": id})

	return nil
}

func (s *enrollmentService) ListByPatient(ctx context.Context, patientID string, page, limit int) ([]EnrollmentResponse, int64, error) {
	id, err := uuid.Parse(patientID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid patient_id: %w", err)
	}

	enrollments, total, err := s.repo.ListByPatient(ctx, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch enrollments: %w", err)
	}

	res := make([]EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		res = append(res, toEnrollmentResponse(e))
	}
	return res, total, nil
}

// --- Helpers ---

// checkPlanOwnership verifies each referenced plan belongs to the insurer it
// is paired with; a mismatched pair would make tariff resolution and rule
// scoping disagree about the payer.
func (s *enrollmentService) checkPlanOwnership(ctx context.Context, enrollment *model.PatientInsuranceEnrollment) error {
	plan, err := s.insurerRepo.FindPlanByID(ctx, enrollment.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("insurance plan not found")
		}
		return fmt.Errorf("failed to fetch insurance plan: %w", err)
	}
	if plan.InsurerID != enrollment.InsurerID {
		return fmt.Errorf("plan %s does not belong to the named insurer", enrollment.PlanID)
	}

	if enrollment.SupplementaryPlanID != nil {
		suppPlan, err := s.insurerRepo.FindPlanByID(ctx, *enrollment.SupplementaryPlanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("supplementary insurance plan not found")
			}
			return fmt.Errorf("failed to fetch supplementary plan: %w", err)
		}
		if enrollment.SupplementaryInsurerID == nil || suppPlan.InsurerID != *enrollment.SupplementaryInsurerID {
			return fmt.Errorf("supplementary plan %s does not belong to the supplementary insurer", *enrollment.SupplementaryPlanID)
		}
	}
	return nil
}

func (s *enrollmentService) checkPriorityConflict(ctx context.Context, enrollment *model.PatientInsuranceEnrollment) error {
	count, err := s.repo.CountPrimaryConflicts(ctx, enrollment)
	if err != nil {
		return fmt.Errorf("failed to check enrollment conflicts: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("the patient already has an enrollment with priority %d in an overlapping period", enrollment.Priority)
	}
	return nil
}

func enrollmentFromRequest(req EnrollmentRequest) (*model.PatientInsuranceEnrollment, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("invalid patient_id: %w", err)
	}
	insurerID, err := uuid.Parse(req.InsurerID)
	if err != nil {
		return nil, fmt.Errorf("invalid insurer_id: %w", err)
	}
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("invalid plan_id: %w", err)
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date format (expected YYYY-MM-DD): %w", err)
	}

	enrollment := &model.PatientInsuranceEnrollment{
		PatientID: patientID,
		InsurerID: insurerID,
		PlanID:    planID,
		Priority:  req.Priority,
		StartDate: startDate,
		IsActive:  true,
	}
	if req.IsActive != nil {
		enrollment.IsActive = *req.IsActive
	}

	if req.EndDate != "" {
		endDate, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end_date format (expected YYYY-MM-DD): %w", err)
		}
		if !startDate.Before(endDate) {
			return nil, fmt.Errorf("end_date must be after start_date")
		}
		enrollment.EndDate = &endDate
	}

	if (req.SupplementaryInsurerID == "") != (req.SupplementaryPlanID == "") {
		return nil, fmt.Errorf("supplementary insurer and plan must be set together")
	}
	if req.SupplementaryInsurerID != "" {
		suppInsurer, err := uuid.Parse(req.SupplementaryInsurerID)
		if err != nil {
			return nil, fmt.Errorf("invalid supplementary_insurer_id: %w", err)
		}
		suppPlan, err := uuid.Parse(req.SupplementaryPlanID)
		if err != nil {
			return nil, fmt.Errorf("invalid supplementary_plan_id: %w", err)
		}
		enrollment.SupplementaryInsurerID = &suppInsurer
		enrollment.SupplementaryPlanID = &suppPlan
	}

	return enrollment, nil
}

func toEnrollmentResponse(e model.PatientInsuranceEnrollment) EnrollmentResponse {
	res := EnrollmentResponse{
		ID:        e.ID.String(),
		PatientID: e.PatientID.String(),
		InsurerID: e.InsurerID.String(),
		PlanID:    e.PlanID.String(),
		Priority:  e.Priority,
		StartDate: e.StartDate.Format("2006-01-02"),
		IsActive:  e.IsActive,
	}
	if e.Insurer != nil {
		res.InsurerName = e.Insurer.Name
	}
	if e.Plan != nil {
		res.PlanName = e.Plan.Name
	}
	if e.EndDate != nil {
		s := e.EndDate.Format("2006-01-02")
		res.EndDate = &s
	}
	if e.SupplementaryInsurerID != nil {
		s := e.SupplementaryInsurerID.String()
		res.SupplementaryInsurerID = &s
	}
	if e.SupplementaryPlanID != nil {
		s := e.SupplementaryPlanID.String()
		res.SupplementaryPlanID = &s
	}
	return res
}
