package adjudication

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

// Payer is one insurance enrollment in payer order, bundled with the tariff
// candidates and parsed rules loaded for it.
type Payer struct {
	EnrollmentID uuid.UUID
	InsurerID    uuid.UUID
	PlanID       uuid.UUID
	InsurerType  string
	Tariffs      []model.Tariff
	Rules        []Rule
}

// Input is everything the engine needs, fully loaded up front. The engine
// performs no I/O: concurrency safety comes from the version tokens captured
// here and re-checked by the recorder at commit time.
type Input struct {
	ReceptionItemID uuid.UUID
	PatientID       uuid.UUID
	ServiceID       uuid.UUID
	DepartmentID    uuid.UUID
	AsOf            time.Time

	Service            model.MedicalService
	DepartmentOverride *model.DepartmentServiceCoefficient
	Factors            *FactorRegistry
	Payers             []Payer // enrollment priority ascending, primary first

	PatientAge     int
	CategoryCode   string
	DepartmentCode string
}

// Line is one payer's allocation.
type Line struct {
	InsurerID        uuid.UUID
	AppliedTariffID  *uuid.UUID
	GrossAllocation  decimal.Decimal
	CappedAllocation decimal.Decimal
	PercentApplied   *decimal.Decimal
	NoCoverage       bool
}

// SourceVersions holds the version token of every tariff, rule and factor
// record read during adjudication, keyed by record id.
type SourceVersions struct {
	Tariffs map[string]int `json:"tariffs"`
	Rules   map[string]int `json:"rules"`
	Factors map[string]int `json:"factors"`
}

// Result is the assembled, not-yet-persisted adjudication outcome.
type Result struct {
	ServiceAmount     decimal.Decimal
	Lines             []Line
	TotalInsurerShare decimal.Decimal
	FinalPatientShare decimal.Decimal
	DeductibleApplied decimal.Decimal
	CalculationType   string
	SourceVersions    SourceVersions
}

// Adjudicate computes the full payer allocation for one service instance.
// It walks the payers in priority order against a shrinking remainder, applies
// per-payer rule effects, enforces the primary tariff's copay floor, and
// guarantees sum(lines.capped) + finalPatientShare == serviceAmount exactly,
// with rounding residuals always assigned to the patient share.
//
// On a rule rejection the partial result (prior payers' lines) is returned
// alongside the error for diagnostics; it must never be recorded.
func Adjudicate(in Input) (*Result, error) {
	priced, err := Price(in.Service, in.DepartmentOverride, in.Factors, in.AsOf)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ServiceAmount:     priced.Amount,
		CalculationType:   priced.CalculationType,
		DeductibleApplied: decimal.Zero,
		SourceVersions:    captureVersions(in),
	}

	remaining := priced.Amount
	var minCopay decimal.Decimal

	for i, payer := range in.Payers {
		tariff, err := ResolveTariff(payer.Tariffs, in.AsOf)
		if err != nil {
			if errors.Is(err, ErrNoApplicableTariff) && len(in.Payers) > 1 {
				// A missing tariff only fails the adjudication when the payer
				// is the patient's sole coverage.
				result.Lines = append(result.Lines, Line{InsurerID: payer.InsurerID, NoCoverage: true})
				continue
			}
			return nil, err
		}
		if err := validateTariff(*tariff); err != nil {
			return nil, err
		}

		effects, err := EvaluateRules(payer.Rules, RuleContext{
			AsOf:              in.AsOf,
			ServiceAmount:     priced.Amount,
			PatientAge:        in.PatientAge,
			InsurerType:       payer.InsurerType,
			ServiceCategory:   in.CategoryCode,
			Department:        in.DepartmentCode,
			InsurancePlanID:   payer.PlanID,
			ServiceID:         in.ServiceID,
			ServiceCategoryID: in.Service.CategoryID,
		})
		if err != nil {
			var rejected *RuleRejectedError
			if errors.As(err, &rejected) {
				// Prior payers' lines stay on the failed result for diagnosis.
				return result, err
			}
			return nil, err
		}

		percent, cap, deductible := applyEffects(*tariff, effects)

		line, used := computeLine(*tariff, percent, cap, deductible, remaining)
		result.DeductibleApplied = result.DeductibleApplied.Add(used)
		result.Lines = append(result.Lines, line)
		remaining = remaining.Sub(line.CappedAllocation)

		if i == 0 && tariff.MinPatientCopay != nil {
			minCopay = *tariff.MinPatientCopay
		}
	}

	result.FinalPatientShare = applyCopayFloor(result, remaining, minCopay)

	total := decimal.Zero
	for _, l := range result.Lines {
		total = total.Add(l.CappedAllocation)
	}
	result.TotalInsurerShare = total
	return result, nil
}

// validateTariff rejects configurations the arithmetic cannot make sense of.
func validateTariff(t model.Tariff) error {
	hundred := decimal.NewFromInt(100)
	for _, pct := range []*decimal.Decimal{t.InsurerSharePercent, t.PatientSharePercent} {
		if pct != nil && (pct.IsNegative() || pct.GreaterThan(hundred)) {
			return fmt.Errorf("%w: tariff %s share percent outside [0,100]", ErrInvalidCoverageConfiguration, t.ID)
		}
	}
	for _, amt := range []*decimal.Decimal{t.TariffPrice, t.MinPatientCopay, t.MaxInsurerPayment, t.Deductible} {
		if amt != nil && amt.IsNegative() {
			return fmt.Errorf("%w: tariff %s has a negative amount", ErrInvalidCoverageConfiguration, t.ID)
		}
	}
	if t.InsurerSharePercent == nil && t.TariffPrice == nil {
		return fmt.Errorf("%w: tariff %s defines neither a share percent nor a fixed price", ErrInvalidCoverageConfiguration, t.ID)
	}
	if t.MaxInsurerPayment != nil && t.MinPatientCopay != nil && t.MaxInsurerPayment.LessThan(*t.MinPatientCopay) {
		return fmt.Errorf("%w: tariff %s cap below copay floor", ErrInvalidCoverageConfiguration, t.ID)
	}
	return nil
}

// applyEffects resolves the effective percent/cap/deductible for one payer.
// Effects arrive most-important-first, so the first override of each kind
// wins.
func applyEffects(t model.Tariff, effects []Effect) (percent, cap, deductible *decimal.Decimal) {
	percent = t.InsurerSharePercent
	cap = t.MaxInsurerPayment
	deductible = t.Deductible

	var pctSet, capSet, dedSet bool
	for _, e := range effects {
		switch e.Type {
		case EffectOverridePercent:
			if !pctSet {
				percent, pctSet = e.Percent, true
			}
		case EffectOverrideCap:
			if !capSet {
				cap, capSet = e.Amount, true
			}
		case EffectOverrideDeductible:
			if !dedSet {
				deductible, dedSet = e.Amount, true
			}
		}
	}
	return percent, cap, deductible
}

// computeLine derives one payer's allocation against the remaining amount.
// The covered basis is the remainder, clamped to the tariff's agreed price
// when one is set; the deductible comes off the basis before the percentage
// and cap apply. Returns the line and the deductible actually consumed.
func computeLine(t model.Tariff, percent, cap, deductible *decimal.Decimal, remaining decimal.Decimal) (Line, decimal.Decimal) {
	basis := remaining
	if t.TariffPrice != nil {
		basis = decimalMin(basis, *t.TariffPrice)
	}

	usedDeductible := decimal.Zero
	if deductible != nil {
		usedDeductible = decimalMin(*deductible, basis)
		basis = basis.Sub(usedDeductible)
	}

	var gross decimal.Decimal
	if percent != nil {
		gross = basis.Mul(*percent).Div(decimal.NewFromInt(100))
	} else {
		// Flat-rate tariff: the insurer pays the agreed price, bounded by
		// what is still owed.
		gross = basis
	}
	gross = decimalMax(roundRial(gross), decimal.Zero)

	capped := gross
	if cap != nil {
		capped = decimalMin(capped, roundRial(*cap))
	}
	capped = decimalMax(capped, decimal.Zero)

	line := Line{
		InsurerID:        t.InsurerID,
		AppliedTariffID:  &t.ID,
		GrossAllocation:  gross,
		CappedAllocation: capped,
	}
	if percent != nil {
		p := *percent
		line.PercentApplied = &p
	}
	return line, usedDeductible
}

// applyCopayFloor raises the patient share to the primary tariff's minimum
// copay, reclaiming the overflow from payer lines in reverse priority order so
// the primary payer's allocation is touched last.
func applyCopayFloor(result *Result, remaining, minCopay decimal.Decimal) decimal.Decimal {
	patientShare := decimalMax(remaining, decimal.Zero)
	if minCopay.LessThanOrEqual(patientShare) {
		return patientShare
	}

	// The floor can never push the patient above the full service amount.
	target := decimalMin(roundRial(minCopay), result.ServiceAmount)
	need := target.Sub(patientShare)
	for i := len(result.Lines) - 1; i >= 0 && need.IsPositive(); i-- {
		line := &result.Lines[i]
		if line.NoCoverage {
			continue
		}
		take := decimalMin(line.CappedAllocation, need)
		line.CappedAllocation = line.CappedAllocation.Sub(take)
		need = need.Sub(take)
	}
	return target.Sub(need)
}

func captureVersions(in Input) SourceVersions {
	sv := SourceVersions{
		Tariffs: map[string]int{},
		Rules:   map[string]int{},
		Factors: in.Factors.Versions(),
	}
	for _, p := range in.Payers {
		for _, t := range p.Tariffs {
			sv.Tariffs[t.ID.String()] = t.Version
		}
		for _, r := range p.Rules {
			sv.Rules[r.ID.String()] = r.Version
		}
	}
	return sv
}
