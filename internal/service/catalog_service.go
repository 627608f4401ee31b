package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/repository"
)

// --- DTOs ---

type MedicalServiceRequest struct {
	Code                    string `json:"code" binding:"required"`
	Name                    string `json:"name" binding:"required"`
	CategoryID              string `json:"category_id" binding:"required"`
	IsCoefficientPriced     bool   `json:"is_coefficient_priced"`
	FlatPrice               string `json:"flat_price"`               // Rials, flat-priced services
	TechnicalCoefficient    string `json:"technical_coefficient"`    // coefficient-priced services
	ProfessionalCoefficient string `json:"professional_coefficient"` // coefficient-priced services
	FactorScope             string `json:"factor_scope"`
	IsActive                *bool  `json:"is_active"`
}

type MedicalServiceResponse struct {
	ID                      string  `json:"id"`
	Code                    string  `json:"code"`
	Name                    string  `json:"name"`
	CategoryID              string  `json:"category_id"`
	CategoryName            string  `json:"category_name,omitempty"`
	IsCoefficientPriced     bool    `json:"is_coefficient_priced"`
	FlatPrice               *string `json:"flat_price"`
	TechnicalCoefficient    *string `json:"technical_coefficient"`
	ProfessionalCoefficient *string `json:"professional_coefficient"`
	FactorScope             string  `json:"factor_scope"`
	IsActive                bool    `json:"is_active"`
}

type DepartmentOverrideRequest struct {
	ServiceID               string `json:"service_id" binding:"required"`
	DepartmentID            string `json:"department_id" binding:"required"`
	TechnicalCoefficient    string `json:"technical_coefficient" binding:"required"`
	ProfessionalCoefficient string `json:"professional_coefficient" binding:"required"`
}

type InsurerResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	InsurerType string `json:"insurer_type"`
	IsActive    bool   `json:"is_active"`
}

// --- Interface ---

type CatalogService interface {
	CreateService(ctx context.Context, req MedicalServiceRequest, userID string) (MedicalServiceResponse, error)
	UpdateService(ctx context.Context, id string, req MedicalServiceRequest, userID string) (MedicalServiceResponse, error)
	ListServices(ctx context.Context, page, limit int) ([]MedicalServiceResponse, int64, error)
	UpsertDepartmentOverride(ctx context.Context, req DepartmentOverrideRequest, userID string) error
	ListInsurers(ctx context.Context, page, limit int) ([]InsurerResponse, int64, error)
}

type catalogService struct {
	db          *gorm.DB
	catalogRepo repository.CatalogRepository
	insurerRepo repository.InsurerRepository
}

func NewCatalogService(db *gorm.DB, catalogRepo repository.CatalogRepository, insurerRepo repository.InsurerRepository) CatalogService {
	return &catalogService{db: db, catalogRepo: catalogRepo, insurerRepo: insurerRepo}
}

// --- Implementation ---

func (s *catalogService) CreateService(ctx context.Context, req MedicalServiceRequest, userID string) (MedicalServiceResponse, error) {
	svc, err := serviceFromRequest(req)
	if err != nil {
		return MedicalServiceResponse{}, err
	}

	if err := s.catalogRepo.CreateService(ctx, svc); err != nil {
		return MedicalServiceResponse{}, fmt.Errorf("failed to create service: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionCreateService, svc.ID.String(), svc.Name, req)

	return toServiceResponse(*svc), nil
}

func (s *catalogService) UpdateService(ctx context.Context, id string, req MedicalServiceRequest, userID string) (MedicalServiceResponse, error) {
	serviceID, err := uuid.Parse(id)
	if err != nil {
		return MedicalServiceResponse{}, fmt.Errorf("invalid service id: %w", err)
	}

	existing, err := s.catalogRepo.FindServiceByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MedicalServiceResponse{}, fmt.Errorf("service not found")
		}
		return MedicalServiceResponse{}, fmt.Errorf("failed to fetch service: %w", err)
	}

	updated, err := serviceFromRequest(req)
	if err != nil {
		return MedicalServiceResponse{}, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	if err := s.catalogRepo.UpdateService(ctx, updated); err != nil {
		return MedicalServiceResponse{}, fmt.Errorf("failed to update service: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionUpdateService, updated.ID.String(), updated.Name, req)

	return toServiceResponse(*updated), nil
}

func (s *catalogService) ListServices(ctx context.Context, page, limit int) ([]MedicalServiceResponse, int64, error) {
	services, total, err := s.catalogRepo.ListServices(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch services: %w", err)
	}

	res := make([]MedicalServiceResponse, 0, len(services))
	for _, svc := range services {
		res = append(res, toServiceResponse(svc))
	}
	return res, total, nil
}

func (s *catalogService) UpsertDepartmentOverride(ctx context.Context, req DepartmentOverrideRequest, userID string) error {
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return fmt.Errorf("invalid service_id: %w", err)
	}
	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return fmt.Errorf("invalid department_id: %w", err)
	}

	svc, err := s.catalogRepo.FindServiceByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("service not found")
		}
		return fmt.Errorf("failed to fetch service: %w", err)
	}
	if !svc.IsCoefficientPriced {
		return fmt.Errorf("service %s is flat-priced and cannot take coefficient overrides", svc.Code)
	}
	if _, err := s.catalogRepo.FindDepartmentByID(ctx, departmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("department not found")
		}
		return fmt.Errorf("failed to fetch department: %w", err)
	}

	tech, err := parseCoefficient(req.TechnicalCoefficient, "technical_coefficient")
	if err != nil {
		return err
	}
	prof, err := parseCoefficient(req.ProfessionalCoefficient, "professional_coefficient")
	if err != nil {
		return err
	}

	override := &model.DepartmentServiceCoefficient{
		ServiceID:               serviceID,
		DepartmentID:            departmentID,
		TechnicalCoefficient:    *tech,
		ProfessionalCoefficient: *prof,
	}
	if err := s.catalogRepo.UpsertDepartmentOverride(ctx, override); err != nil {
		return fmt.Errorf("failed to save department override: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionUpsertDeptCoefficient, serviceID.String(), svc.Name, req)

	return nil
}

func (s *catalogService) ListInsurers(ctx context.Context, page, limit int) ([]InsurerResponse, int64, error) {
	insurers, total, err := s.insurerRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch insurers: %w", err)
	}

	res := make([]InsurerResponse, 0, len(insurers))
	for _, ins := range insurers {
		res = append(res, InsurerResponse{
			ID:          ins.ID.String(),
			Name:        ins.Name,
			InsurerType: ins.InsurerType,
			IsActive:    ins.IsActive,
		})
	}
	return res, total, nil
}

// --- Helpers ---

func serviceFromRequest(req MedicalServiceRequest) (*model.MedicalService, error) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("invalid category_id: %w", err)
	}

	scope := req.FactorScope
	if scope == "" {
		scope = model.FactorScopePublic
	}
	switch scope {
	case model.FactorScopePublic, model.FactorScopePrivate, model.FactorScopeCharity:
	default:
		return nil, fmt.Errorf("invalid factor_scope: %s", scope)
	}

	svc := &model.MedicalService{
		Code:                req.Code,
		Name:                req.Name,
		CategoryID:          categoryID,
		IsCoefficientPriced: req.IsCoefficientPriced,
		FactorScope:         scope,
		IsActive:            true,
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}

	// Exactly one pricing shape per service.
	if req.IsCoefficientPriced {
		if req.FlatPrice != "" {
			return nil, fmt.Errorf("coefficient-priced services must not carry a flat_price")
		}
		tech, err := parseCoefficient(req.TechnicalCoefficient, "technical_coefficient")
		if err != nil {
			return nil, err
		}
		prof, err := parseCoefficient(req.ProfessionalCoefficient, "professional_coefficient")
		if err != nil {
			return nil, err
		}
		svc.TechnicalCoefficient = tech
		svc.ProfessionalCoefficient = prof
	} else {
		if req.TechnicalCoefficient != "" || req.ProfessionalCoefficient != "" {
			return nil, fmt.Errorf("flat-priced services must not carry coefficients")
		}
		if req.FlatPrice == "" {
			return nil, fmt.Errorf("flat_price is required for flat-priced services")
		}
		price, err := decimal.NewFromString(req.FlatPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid flat_price: %w", err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("flat_price must not be negative")
		}
		svc.FlatPrice = &price
	}

	return svc, nil
}

func parseCoefficient(raw, field string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, fmt.Errorf("%s is required for coefficient-priced services", field)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	if !v.IsPositive() {
		return nil, fmt.Errorf("%s must be positive", field)
	}
	return &v, nil
}

func toServiceResponse(svc model.MedicalService) MedicalServiceResponse {
	res := MedicalServiceResponse{
		ID:                  svc.ID.String(),
		Code:                svc.Code,
		Name:                svc.Name,
		CategoryID:          svc.CategoryID.String(),
		IsCoefficientPriced: svc.IsCoefficientPriced,
		FactorScope:         svc.FactorScope,
		IsActive:            svc.IsActive,
	}
	if svc.Category != nil {
		res.CategoryName = svc.Category.Name
	}
	if svc.FlatPrice != nil {
		s := svc.FlatPrice.StringFixed(0)
		res.FlatPrice = &s
	}
	if svc.TechnicalCoefficient != nil {
		s := svc.TechnicalCoefficient.String()
		res.TechnicalCoefficient = &s
	}
	if svc.ProfessionalCoefficient != nil {
		s := svc.ProfessionalCoefficient.String()
		res.ProfessionalCoefficient = &s
	}
	return res
}
