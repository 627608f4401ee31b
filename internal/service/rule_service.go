package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/adjudication"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/repository"
)

// --- DTOs ---

type BusinessRuleRequest struct {
	Name              string `json:"name" binding:"required"`
	RuleType          string `json:"rule_type" binding:"required,oneof=ADJUSTMENT REJECTION"`
	Priority          int    `json:"priority"`
	InsurancePlanID   string `json:"insurance_plan_id"`   // empty = wildcard
	ServiceCategoryID string `json:"service_category_id"` // empty = wildcard
	ServiceID         string `json:"service_id"`          // empty = wildcard
	Conditions        string `json:"conditions" binding:"required"` // predicate AST, JSON
	Actions           string `json:"actions" binding:"required"`    // effect list, JSON
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	IsActive          *bool  `json:"is_active"`
}

type BusinessRuleResponse struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	RuleType          string  `json:"rule_type"`
	Priority          int     `json:"priority"`
	InsurancePlanID   *string `json:"insurance_plan_id"`
	ServiceCategoryID *string `json:"service_category_id"`
	ServiceID         *string `json:"service_id"`
	Conditions        string  `json:"conditions"`
	Actions           string  `json:"actions"`
	StartDate         *string `json:"start_date"`
	EndDate           *string `json:"end_date"`
	IsActive          bool    `json:"is_active"`
	Version           int     `json:"version"`
	CreatedAt         string  `json:"created_at"`
}

// --- Interface ---

type BusinessRuleService interface {
	CreateRule(ctx context.Context, req BusinessRuleRequest, userID string) (BusinessRuleResponse, error)
	UpdateRule(ctx context.Context, id string, req BusinessRuleRequest, userID string) (BusinessRuleResponse, error)
	DeleteRule(ctx context.Context, id string, userID string) error
	ListRules(ctx context.Context, page, limit int) ([]BusinessRuleResponse, int64, error)
}

type businessRuleService struct {
	db   *gorm.DB
	repo repository.BusinessRuleRepository
}

func NewBusinessRuleService(db *gorm.DB, repo repository.BusinessRuleRepository) BusinessRuleService {
	return &businessRuleService{db: db, repo: repo}
}

// --- Implementation ---

func (s *businessRuleService) CreateRule(ctx context.Context, req BusinessRuleRequest, userID string) (BusinessRuleResponse, error) {
	rule, err := ruleFromRequest(req)
	if err != nil {
		return BusinessRuleResponse{}, err
	}

	rule.Version = 1
	if err := s.repo.Create(ctx, rule); err != nil {
		return BusinessRuleResponse{}, fmt.Errorf("failed to create business rule: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionCreateRule, rule.ID.String(), rule.Name, req)

	return toRuleResponse(*rule), nil
}

func (s *businessRuleService) UpdateRule(ctx context.Context, id string, req BusinessRuleRequest, userID string) (BusinessRuleResponse, error) {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return BusinessRuleResponse{}, fmt.Errorf("invalid rule id: %w", err)
	}

	existing, err := s.repo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BusinessRuleResponse{}, fmt.Errorf("business rule not found")
		}
		return BusinessRuleResponse{}, fmt.Errorf("failed to fetch business rule: %w", err)
	}

	updated, err := ruleFromRequest(req)
	if err != nil {
		return BusinessRuleResponse{}, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.Version = existing.Version + 1

	if err := s.repo.Update(ctx, updated); err != nil {
		return BusinessRuleResponse{}, fmt.Errorf("failed to update business rule: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionUpdateRule, updated.ID.String(), updated.Name, req)

	return toRuleResponse(*updated), nil
}

func (s *businessRuleService) DeleteRule(ctx context.Context, id string, userID string) error {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid rule id: %w", err)
	}

	rule, err := s.repo.FindByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("business rule not found")
		}
		return fmt.Errorf("failed to fetch business rule: %w", err)
	}

	if err := s.repo.Delete(ctx, ruleID); err != nil {
		return fmt.Errorf("failed to delete business rule: %w", err)
	}

	writeAuditLog(ctx, s.db, userID, model.ActionDeleteRule, rule.ID.String(), rule.Name,
		map[string]string{"deleted_id": id})

	return nil
}

func (s *businessRuleService) ListRules(ctx context.Context, page, limit int) ([]BusinessRuleResponse, int64, error) {
	rules, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch business rules: %w", err)
	}

	res := make([]BusinessRuleResponse, 0, len(rules))
	for _, r := range rules {
		res = append(res, toRuleResponse(r))
	}
	return res, total, nil
}

// --- Helpers ---

func ruleFromRequest(req BusinessRuleRequest) (*model.BusinessRule, error) {
	rule := &model.BusinessRule{
		Name:       req.Name,
		RuleType:   req.RuleType,
		Priority:   req.Priority,
		Conditions: req.Conditions,
		Actions:    req.Actions,
		IsActive:   true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	parseScope := func(name, raw string, dest **uuid.UUID) error {
		if raw == "" {
			return nil
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		*dest = &id
		return nil
	}
	if err := parseScope("insurance_plan_id", req.InsurancePlanID, &rule.InsurancePlanID); err != nil {
		return nil, err
	}
	if err := parseScope("service_category_id", req.ServiceCategoryID, &rule.ServiceCategoryID); err != nil {
		return nil, err
	}
	if err := parseScope("service_id", req.ServiceID, &rule.ServiceID); err != nil {
		return nil, err
	}

	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start_date format (expected YYYY-MM-DD): %w", err)
		}
		rule.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end_date format (expected YYYY-MM-DD): %w", err)
		}
		rule.EndDate = &end
	}

	// A rule that cannot be parsed must never reach the adjudicator.
	if _, err := adjudication.ParseRule(*rule); err != nil {
		return nil, err
	}

	return rule, nil
}

func toRuleResponse(r model.BusinessRule) BusinessRuleResponse {
	res := BusinessRuleResponse{
		ID:         r.ID.String(),
		Name:       r.Name,
		RuleType:   r.RuleType,
		Priority:   r.Priority,
		Conditions: r.Conditions,
		Actions:    r.Actions,
		IsActive:   r.IsActive,
		Version:    r.Version,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}

	scope := func(id *uuid.UUID) *string {
		if id == nil {
			return nil
		}
		s := id.String()
		return &s
	}
	res.InsurancePlanID = scope(r.InsurancePlanID)
	res.ServiceCategoryID = scope(r.ServiceCategoryID)
	res.ServiceID = scope(r.ServiceID)

	if r.StartDate != nil {
		s := r.StartDate.Format("2006-01-02")
		res.StartDate = &s
	}
	if r.EndDate != nil {
		s := r.EndDate.Format("2006-01-02")
		res.EndDate = &s
	}
	return res
}
