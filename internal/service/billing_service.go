package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/adjudication"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/repository"
	"github.com/jiroftsoft/ClinicApp-sub008/internal/websocket"
)

// --- DTOs ---

type AdjudicateRequest struct {
	ReceptionItemID string `json:"reception_item_id" binding:"required"`
	PatientID       string `json:"patient_id" binding:"required"`
	ServiceID       string `json:"service_id" binding:"required"`
	DepartmentID    string `json:"department_id" binding:"required"`
	AsOf            string `json:"as_of"` // YYYY-MM-DD, defaults to today
}

type CoverageLineResponse struct {
	Sequence         int     `json:"sequence"`
	InsurerID        string  `json:"insurer_id"`
	AppliedTariffID  *string `json:"applied_tariff_id"`
	GrossAllocation  string  `json:"gross_allocation"`
	CappedAllocation string  `json:"capped_allocation"`
	PercentApplied   *string `json:"percent_applied"`
	NoCoverage       bool    `json:"no_coverage"`
}

type CalculationResponse struct {
	ID                string                 `json:"id,omitempty"`
	ReceptionItemID   string                 `json:"reception_item_id"`
	ServiceAmount     string                 `json:"service_amount"`
	TotalInsurerShare string                 `json:"total_insurer_share"`
	FinalPatientShare string                 `json:"final_patient_share"`
	DeductibleApplied string                 `json:"deductible_applied"`
	CalculationType   string                 `json:"calculation_type"`
	IsValid           bool                   `json:"is_valid"`
	Lines             []CoverageLineResponse `json:"lines"`
	CreatedAt         string                 `json:"created_at,omitempty"`
}

// --- Interface ---

type BillingService interface {
	// Adjudicate computes and records the allocation for one reception item.
	Adjudicate(ctx context.Context, req AdjudicateRequest, userID string) (CalculationResponse, error)
	// Quote runs the same computation without persisting anything.
	Quote(ctx context.Context, req AdjudicateRequest) (CalculationResponse, error)
	// History returns every calculation ever recorded for a reception item,
	// newest first, superseded rows included.
	History(ctx context.Context, receptionItemID string) ([]CalculationResponse, error)
	// Current returns the single valid calculation for a reception item.
	Current(ctx context.Context, receptionItemID string) (CalculationResponse, error)
}

type billingService struct {
	db             *gorm.DB
	catalogRepo    repository.CatalogRepository
	enrollmentRepo repository.EnrollmentRepository
	insurerRepo    repository.InsurerRepository
	tariffRepo     repository.TariffRepository
	ruleRepo       repository.BusinessRuleRepository
	factorRepo     repository.FinancialFactorRepository
	calcRepo       repository.CalculationRepository
	txManager      repository.TransactionManager
	hub            *websocket.Hub
}

func NewBillingService(
	db *gorm.DB,
	catalogRepo repository.CatalogRepository,
	enrollmentRepo repository.EnrollmentRepository,
	insurerRepo repository.InsurerRepository,
	tariffRepo repository.TariffRepository,
	ruleRepo repository.BusinessRuleRepository,
	factorRepo repository.FinancialFactorRepository,
	calcRepo repository.CalculationRepository,
	txManager repository.TransactionManager,
	hub *websocket.Hub,
) BillingService {
	return &billingService{
		db:             db,
		catalogRepo:    catalogRepo,
		enrollmentRepo: enrollmentRepo,
		insurerRepo:    insurerRepo,
		tariffRepo:     tariffRepo,
		ruleRepo:       ruleRepo,
		factorRepo:     factorRepo,
		calcRepo:       calcRepo,
		txManager:      txManager,
		hub:            hub,
	}
}

// --- Implementation ---

func (s *billingService) Quote(ctx context.Context, req AdjudicateRequest) (CalculationResponse, error) {
	input, err := s.loadInput(ctx, req)
	if err != nil {
		return CalculationResponse{}, err
	}

	result, err := adjudication.Adjudicate(*input)
	if err != nil {
		return CalculationResponse{}, err
	}

	return toCalculationResponse(buildCalculation(*input, result)), nil
}

func (s *billingService) Adjudicate(ctx context.Context, req AdjudicateRequest, userID string) (CalculationResponse, error) {
	input, err := s.loadInput(ctx, req)
	if err != nil {
		return CalculationResponse{}, err
	}

	result, err := adjudication.Adjudicate(*input)
	if err != nil {
		return CalculationResponse{}, err
	}

	calc := buildCalculation(*input, result)

	// Optimistic commit: every tariff/rule/factor version token read during
	// adjudication must still match inside the transaction, otherwise the
	// caller re-runs against fresh inputs rather than committing stale math.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkSourceVersions(txCtx, result.SourceVersions); err != nil {
			return err
		}
		if err := s.calcRepo.InvalidateForReceptionItem(txCtx, calc.ReceptionItemID); err != nil {
			return fmt.Errorf("failed to supersede prior calculations: %w", err)
		}
		if err := s.calcRepo.Create(txCtx, calc); err != nil {
			return fmt.Errorf("failed to record calculation: %w", err)
		}
		return nil
	})
	if err != nil {
		return CalculationResponse{}, err
	}

	writeAuditLog(ctx, s.db, userID, model.ActionRecordCalculation, calc.ID.String(),
		"calculation for reception item "+calc.ReceptionItemID.String(),
		map[string]string{
			"service_amount":      calc.ServiceAmount.String(),
			"total_insurer_share": calc.TotalInsurerShare.String(),
			"final_patient_share": calc.FinalPatientShare.String(),
		})
	s.broadcastCommitted(calc)

	return toCalculationResponse(calc), nil
}

func (s *billingService) History(ctx context.Context, receptionItemID string) ([]CalculationResponse, error) {
	id, err := uuid.Parse(receptionItemID)
	if err != nil {
		return nil, fmt.Errorf("invalid reception_item_id: %w", err)
	}

	calcs, err := s.calcRepo.ListByReceptionItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calculations: %w", err)
	}

	res := make([]CalculationResponse, 0, len(calcs))
	for i := range calcs {
		res = append(res, toCalculationResponse(&calcs[i]))
	}
	return res, nil
}

func (s *billingService) Current(ctx context.Context, receptionItemID string) (CalculationResponse, error) {
	id, err := uuid.Parse(receptionItemID)
	if err != nil {
		return CalculationResponse{}, fmt.Errorf("invalid reception_item_id: %w", err)
	}

	calc, err := s.calcRepo.FindValidByReceptionItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CalculationResponse{}, fmt.Errorf("no valid calculation for this reception item")
		}
		return CalculationResponse{}, fmt.Errorf("failed to fetch calculation: %w", err)
	}

	return toCalculationResponse(calc), nil
}

// loadInput performs the single bulk read the engine needs. Everything after
// this point is pure computation.
func (s *billingService) loadInput(ctx context.Context, req AdjudicateRequest) (*adjudication.Input, error) {
	receptionItemID, err := uuid.Parse(req.ReceptionItemID)
	if err != nil {
		return nil, fmt.Errorf("invalid reception_item_id: %w", err)
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("invalid patient_id: %w", err)
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid service_id: %w", err)
	}
	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("invalid department_id: %w", err)
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if req.AsOf != "" {
		asOf, err = time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			return nil, fmt.Errorf("invalid as_of date format (expected YYYY-MM-DD): %w", err)
		}
	}

	svc, err := s.catalogRepo.FindServiceByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("service not found: %w", err)
	}
	dept, err := s.catalogRepo.FindDepartmentByID(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("department not found: %w", err)
	}
	patient, err := s.catalogRepo.FindPatientByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("patient not found: %w", err)
	}
	override, err := s.catalogRepo.FindDepartmentOverride(ctx, serviceID, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load department coefficients: %w", err)
	}

	factors, err := s.factorRepo.FindByScopeAndYear(ctx, svc.FactorScope, asOf.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to load financial factors: %w", err)
	}

	enrollments, err := s.enrollmentRepo.FindActiveByPatient(ctx, patientID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return nil, fmt.Errorf("patient has no active insurance enrollment: %w", adjudication.ErrNoApplicableTariff)
	}

	payers, err := s.buildPayers(ctx, enrollments, serviceID, svc.CategoryID, asOf)
	if err != nil {
		return nil, err
	}

	categoryCode := ""
	if svc.Category != nil {
		categoryCode = svc.Category.Code
	}

	return &adjudication.Input{
		ReceptionItemID:    receptionItemID,
		PatientID:          patientID,
		ServiceID:          serviceID,
		DepartmentID:       departmentID,
		AsOf:               asOf,
		Service:            *svc,
		DepartmentOverride: override,
		Factors:            adjudication.NewFactorRegistry(factors),
		Payers:             payers,
		PatientAge:         ageAt(patient.BirthDate, asOf),
		CategoryCode:       categoryCode,
		DepartmentCode:     dept.Code,
	}, nil
}

// buildPayers expands enrollments into engine payers in adjudication order.
// An enrollment naming a supplementary insurer contributes a second payer
// right after itself.
func (s *billingService) buildPayers(ctx context.Context, enrollments []model.PatientInsuranceEnrollment, serviceID, categoryID uuid.UUID, asOf time.Time) ([]adjudication.Payer, error) {
	var payers []adjudication.Payer

	appendPayer := func(enrollmentID, insurerID, planID uuid.UUID, insurerType string) error {
		tariffs, err := s.tariffRepo.FindCandidates(ctx, insurerID, serviceID, asOf)
		if err != nil {
			return fmt.Errorf("failed to load tariffs: %w", err)
		}

		stored, err := s.ruleRepo.FindCandidates(ctx, planID, serviceID, categoryID, asOf)
		if err != nil {
			return fmt.Errorf("failed to load business rules: %w", err)
		}
		rules := make([]adjudication.Rule, 0, len(stored))
		for _, sr := range stored {
			parsed, err := adjudication.ParseRule(sr)
			if err != nil {
				return err
			}
			rules = append(rules, parsed)
		}

		payers = append(payers, adjudication.Payer{
			EnrollmentID: enrollmentID,
			InsurerID:    insurerID,
			PlanID:       planID,
			InsurerType:  insurerType,
			Tariffs:      tariffs,
			Rules:        rules,
		})
		return nil
	}

	for _, e := range enrollments {
		insurerType := ""
		if e.Insurer != nil {
			insurerType = e.Insurer.InsurerType
		}
		if err := appendPayer(e.ID, e.InsurerID, e.PlanID, insurerType); err != nil {
			return nil, err
		}

		if e.SupplementaryInsurerID != nil && e.SupplementaryPlanID != nil {
			supp, err := s.insurerRepo.FindByID(ctx, *e.SupplementaryInsurerID)
			if err != nil {
				return nil, fmt.Errorf("supplementary insurer not found: %w", err)
			}
			if err := appendPayer(e.ID, supp.ID, *e.SupplementaryPlanID, supp.InsurerType); err != nil {
				return nil, err
			}
		}
	}

	return payers, nil
}

// checkSourceVersions compares the tokens captured during adjudication with
// the rows' live versions inside the commit transaction. Any drift, including
// a record deleted in the meantime, is a conflict.
func (s *billingService) checkSourceVersions(ctx context.Context, sv adjudication.SourceVersions) error {
	check := func(captured map[string]int, load func(context.Context, []uuid.UUID) (map[uuid.UUID]int, error)) error {
		ids := make([]uuid.UUID, 0, len(captured))
		for raw := range captured {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("malformed source version key %q: %w", raw, err)
			}
			ids = append(ids, id)
		}

		current, err := load(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to re-read source versions: %w", err)
		}
		for _, id := range ids {
			liveVersion, ok := current[id]
			if !ok || liveVersion != captured[id.String()] {
				return adjudication.ErrConcurrencyConflict
			}
		}
		return nil
	}

	if err := check(sv.Tariffs, s.tariffRepo.CurrentVersions); err != nil {
		return err
	}
	if err := check(sv.Rules, s.ruleRepo.CurrentVersions); err != nil {
		return err
	}
	return check(sv.Factors, s.factorRepo.CurrentVersions)
}

func (s *billingService) broadcastCommitted(calc *model.InsuranceCalculation) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"event":               "calculation_committed",
		"calculation_id":      calc.ID.String(),
		"reception_item_id":   calc.ReceptionItemID.String(),
		"final_patient_share": calc.FinalPatientShare.String(),
		"total_insurer_share": calc.TotalInsurerShare.String(),
	})
	if err != nil {
		return
	}
	s.hub.Broadcast <- payload
}

// --- Helpers ---

func buildCalculation(in adjudication.Input, result *adjudication.Result) *model.InsuranceCalculation {
	versions, _ := json.Marshal(result.SourceVersions)

	calc := &model.InsuranceCalculation{
		ReceptionItemID:   in.ReceptionItemID,
		PatientID:         in.PatientID,
		ServiceID:         in.ServiceID,
		DepartmentID:      in.DepartmentID,
		AsOf:              in.AsOf,
		ServiceAmount:     result.ServiceAmount,
		TotalInsurerShare: result.TotalInsurerShare,
		FinalPatientShare: result.FinalPatientShare,
		DeductibleApplied: result.DeductibleApplied,
		CalculationType:   result.CalculationType,
		IsValid:           true,
		SourceVersions:    string(versions),
	}

	for i, line := range result.Lines {
		stored := model.CoverageLine{
			Sequence:         i,
			InsurerID:        line.InsurerID,
			AppliedTariffID:  line.AppliedTariffID,
			GrossAllocation:  line.GrossAllocation,
			CappedAllocation: line.CappedAllocation,
			NoCoverage:       line.NoCoverage,
		}
		if line.PercentApplied != nil {
			p := *line.PercentApplied
			stored.PercentApplied = &p
		}
		calc.Lines = append(calc.Lines, stored)
	}
	return calc
}

func toCalculationResponse(calc *model.InsuranceCalculation) CalculationResponse {
	res := CalculationResponse{
		ReceptionItemID:   calc.ReceptionItemID.String(),
		ServiceAmount:     calc.ServiceAmount.StringFixed(0),
		TotalInsurerShare: calc.TotalInsurerShare.StringFixed(0),
		FinalPatientShare: calc.FinalPatientShare.StringFixed(0),
		DeductibleApplied: calc.DeductibleApplied.StringFixed(0),
		CalculationType:   calc.CalculationType,
		IsValid:           calc.IsValid,
	}
	if calc.ID != uuid.Nil {
		res.ID = calc.ID.String()
		res.CreatedAt = calc.CreatedAt.Format(time.RFC3339)
	}

	for _, line := range calc.Lines {
		lr := CoverageLineResponse{
			Sequence:         line.Sequence,
			InsurerID:        line.InsurerID.String(),
			GrossAllocation:  line.GrossAllocation.StringFixed(0),
			CappedAllocation: line.CappedAllocation.StringFixed(0),
			NoCoverage:       line.NoCoverage,
		}
		if line.AppliedTariffID != nil {
			id := line.AppliedTariffID.String()
			lr.AppliedTariffID = &id
		}
		if line.PercentApplied != nil {
			p := line.PercentApplied.StringFixed(2)
			lr.PercentApplied = &p
		}
		res.Lines = append(res.Lines, lr)
	}
	return res
}

func ageAt(birthDate, asOf time.Time) int {
	years := asOf.Year() - birthDate.Year()
	if asOf.YearDay() < birthDate.YearDay() {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// IsRetryable reports whether the caller should re-run adjudication with a
// fresh read instead of treating the failure as a configuration problem.
func IsRetryable(err error) bool {
	return errors.Is(err, adjudication.ErrConcurrencyConflict)
}
