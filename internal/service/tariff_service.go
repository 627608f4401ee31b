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

type TariffRequest struct {
	InsurerID           string `json:"insurer_id" binding:"required"`
	ServiceID           string `json:"service_id" binding:"required"`
	Priority            int    `json:"priority" binding:"required"`
	TariffPrice         string `json:"tariff_price"`          // decimal string, Rials
	PatientSharePercent string `json:"patient_share_percent"` // decimal string, 0..100
	InsurerSharePercent string `json:"insurer_share_percent"` // decimal string, 0..100
	MinPatientCopay     string `json:"min_patient_copay"`
	MaxInsurerPayment   string `json:"max_insurer_payment"`
	Deductible          string `json:"deductible"`
	StartDate           string `json:"start_date"` // YYYY-MM-DD, empty = unbounded
	EndDate             string `json:"end_date"`   // YYYY-MM-DD, empty = unbounded
	IsActive            *bool  `json:"is_active"`
}

type TariffResponse struct {
	ID                  string  `json:"id"`
	InsurerID           string  `json:"insurer_id"`
	ServiceID           string  `json:"service_id"`
	Priority            int     `json:"priority"`
	TariffPrice         *string `json:"tariff_price"`
	PatientSharePercent *string `json:"patient_share_percent"`
	InsurerSharePercent *string `json:"insurer_share_percent"`
	MinPatientCopay     *string `json:"min_patient_copay"`
	MaxInsurerPayment   *string `json:"max_insurer_payment"`
	Deductible          *string `json:"deductible"`
	StartDate           *string `json:"start_date"`
	EndDate             *string `json:"end_date"`
	IsActive            bool    `json:"is_active"`
	Version             int     `json:"version"`
	CreatedAt           string  `json:"created_at"`
}

// --- Interface ---

type TariffService interface {
	CreateTariff(ctx context.Context, req TariffRequest, userID string) (TariffResponse, error)
	UpdateTariff(ctx context.Context, id string, req TariffRequest, userID string) (TariffResponse, error)
	DeleteTariff(ctx context.Context, id string, userID string) error
	GetTariff(ctx context.Context, id string) (TariffResponse, error)
	ListTariffs(ctx context.Context, insurerID, serviceID string, page, limit int) ([]TariffResponse, int64, error)
}

type tariffService struct {
	db   *gorm.DB
	repo repository.TariffRepository
}

func NewTariffService(db *gorm.DB, repo repository.TariffRepository) TariffService {
	return &tariffService{db: db, repo: repo}
}

// --- Implementation ---

func (s *tariffService) CreateTariff(ctx context.Context, req TariffRequest, userID string) (TariffResponse, error) {
	tariff, err := tariffFromRequest(req)
	if err != nil {
		return TariffResponse{}, err
	}

	if err := s.checkPriorityConflict(ctx, tariff); err != nil {
		return TariffResponse{}, err
	}

	tariff.Version = 1
	if err := s.repo.Create(ctx, tariff); err != nil {
		return TariffResponse{}, fmt.Errorf("failed to create tariff: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionCreateTariff, tariff.ID.String(),
		fmt.Sprintf("tariff insurer=%s service=%s", tariff.InsurerID, tariff.ServiceID), req)

	return toTariffResponse(*tariff), nil
}

func (s *tariffService) UpdateTariff(ctx context.Context, id string, req TariffRequest, userID string) (TariffResponse, error) {
	tariffID, err := uuid.Parse(id)
	if err != nil {
		return TariffResponse{}, fmt.Errorf("invalid tariff id: %w", err)
	}

	existing, err := s.repo.FindByID(ctx, tariffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TariffResponse{}, fmt.Errorf("tariff not found")
		}
		return TariffResponse{}, fmt.Errorf("failed to fetch tariff: %w", err)
	}

	updated, err := tariffFromRequest(req)
	if err != nil {
		return TariffResponse{}, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	// Edits bump the version token so in-flight adjudications against the old
	// row fail their commit check.
	updated.Version = existing.Version + 1

	if err := s.checkPriorityConflict(ctx, updated); err != nil {
		return TariffResponse{}, err
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return TariffResponse{}, fmt.Errorf("failed to update tariff: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionUpdateTariff, updated.ID.String(),
		fmt.Sprintf("tariff insurer=%s service=%s v%d", updated.InsurerID, updated.ServiceID, updated.Version), req)

	return toTariffResponse(*updated), nil
}

func (s *tariffService) DeleteTariff(ctx context.Context, id string, userID string) error {
	tariffID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid tariff id: %w", err)
	}

	tariff, err := s.repo.FindByID(ctx, tariffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("tariff not found")
		}
		return fmt.Errorf("failed to fetch tariff: %w", err)
	}

	// Soft delete only: recorded calculations keep referencing this row.
	if err := s.repo.Delete(ctx, tariffID); err != nil {
		return fmt.Errorf("failed to delete tariff: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionDeleteTariff, tariff.ID.String(),
		fmt.Sprintf("tariff insurer=%s service=%s", tariff.InsurerID, tariff.ServiceID),
		map[string]string{"deleted_id": id})

	return nil
}

func (s *tariffService) GetTariff(ctx context.Context, id string) (TariffResponse, error) {
	tariffID, err := uuid.Parse(id)
	if err != nil {
		return TariffResponse{}, fmt.Errorf("invalid tariff id: %w", err)
	}
	tariff, err := s.repo.FindByID(ctx, tariffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TariffResponse{}, fmt.Errorf("tariff not found")
		}
		return TariffResponse{}, fmt.Errorf("failed to fetch tariff: %w", err)
	}
	return toTariffResponse(*tariff), nil
}

func (s *tariffService) ListTariffs(ctx context.Context, insurerID, serviceID string, page, limit int) ([]TariffResponse, int64, error) {
	filter := repository.TariffFilter{Page: page, Limit: limit}
	if insurerID != "" {
		id, err := uuid.Parse(insurerID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid insurer_id: %w", err)
		}
		filter.InsurerID = &id
	}
	if serviceID != "" {
		id, err := uuid.Parse(serviceID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid service_id: %w", err)
		}
		filter.ServiceID = &id
	}

	tariffs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tariffs: %w", err)
	}

	res := make([]TariffResponse, 0, len(tariffs))
	for _, t := range tariffs {
		res = append(res, toTariffResponse(t))
	}
	return res, total, nil
}

// --- Helpers ---

func (s *tariffService) checkPriorityConflict(ctx context.Context, tariff *model.Tariff) error {
	count, err := s.repo.CountPriorityConflicts(ctx, tariff)
	if err != nil {
		return fmt.Errorf("failed to check priority conflicts: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("another tariff for this insurer/service already uses priority %d in an overlapping window", tariff.Priority)
	}
	return nil
}

func tariffFromRequest(req TariffRequest) (*model.Tariff, error) {
	insurerID, err := uuid.Parse(req.InsurerID)
	if err != nil {
		return nil, fmt.Errorf("invalid insurer_id: %w", err)
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid service_id: %w", err)
	}

	tariff := &model.Tariff{
		InsurerID: insurerID,
		ServiceID: serviceID,
		Priority:  req.Priority,
		IsActive:  true,
	}
	if req.IsActive != nil {
		tariff.IsActive = *req.IsActive
	}

	hundred := decimal.NewFromInt(100)
	parseAmount := func(name, raw string, dest **decimal.Decimal, isPercent bool) error {
		if raw == "" {
			return nil
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if value.IsNegative() {
			return fmt.Errorf("invalid %s: must not be negative", name)
		}
		if isPercent && value.GreaterThan(hundred) {
			return fmt.Errorf("invalid %s: must be within [0,100]", name)
		}
		*dest = &value
		return nil
	}

	if err := parseAmount("tariff_price", req.TariffPrice, &tariff.TariffPrice, false); err != nil {
		return nil, err
	}
	if err := parseAmount("patient_share_percent", req.PatientSharePercent, &tariff.PatientSharePercent, true); err != nil {
		return nil, err
	}
	if err := parseAmount("insurer_share_percent", req.InsurerSharePercent, &tariff.InsurerSharePercent, true); err != nil {
		return nil, err
	}
	if err := parseAmount("min_patient_copay", req.MinPatientCopay, &tariff.MinPatientCopay, false); err != nil {
		return nil, err
	}
	if err := parseAmount("max_insurer_payment", req.MaxInsurerPayment, &tariff.MaxInsurerPayment, false); err != nil {
		return nil, err
	}
	if err := parseAmount("deductible", req.Deductible, &tariff.Deductible, false); err != nil {
		return nil, err
	}

	if tariff.InsurerSharePercent == nil && tariff.TariffPrice == nil {
		return nil, fmt.Errorf("tariff needs an insurer_share_percent or a tariff_price")
	}
	if tariff.MaxInsurerPayment != nil && tariff.MinPatientCopay != nil &&
		tariff.MaxInsurerPayment.LessThan(*tariff.MinPatientCopay) {
		return nil, fmt.Errorf("max_insurer_payment must not be below min_patient_copay")
	}

	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start_date format (expected YYYY-MM-DD): %w", err)
		}
		tariff.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end_date format (expected YYYY-MM-DD): %w", err)
		}
		if tariff.StartDate != nil && !tariff.StartDate.Before(end) {
			return nil, fmt.Errorf("end_date must be after start_date")
		}
		tariff.EndDate = &end
	}

	return tariff, nil
}

func toTariffResponse(t model.Tariff) TariffResponse {
	res := TariffResponse{
		ID:        t.ID.String(),
		InsurerID: t.InsurerID.String(),
		ServiceID: t.ServiceID.String(),
		Priority:  t.Priority,
		IsActive:  t.IsActive,
		Version:   t.Version,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}

	amount := func(d *decimal.Decimal, places int32) *string {
		if d == nil {
			return nil
		}
		s := d.StringFixed(places)
		return &s
	}
	res.TariffPrice = amount(t.TariffPrice, 0)
	res.PatientSharePercent = amount(t.PatientSharePercent, 2)
	res.InsurerSharePercent = amount(t.InsurerSharePercent, 2)
	res.MinPatientCopay = amount(t.MinPatientCopay, 0)
	res.MaxInsurerPayment = amount(t.MaxInsurerPayment, 0)
	res.Deductible = amount(t.Deductible, 0)

	if t.StartDate != nil {
		s := t.StartDate.Format("2006-01-02")
		res.StartDate = &s
	}
	if t.EndDate != nil {
		s := t.EndDate.Format("2006-01-02")
		res.EndDate = &s
	}
	return res
}
