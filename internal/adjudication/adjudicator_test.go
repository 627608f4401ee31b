package adjudication

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

var asOf = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func dptr(v int64) *decimal.Decimal {
	dec := decimal.NewFromInt(v)
	return &dec
}

func pctPtr(v string) *decimal.Decimal {
	dec := decimal.RequireFromString(v)
	return &dec
}

func flatService(price int64) model.MedicalService {
	return model.MedicalService{
		ID:         uuid.New(),
		Code:       "900010",
		CategoryID: uuid.New(),
		FlatPrice:  dptr(price),
	}
}

func percentTariff(insurerID uuid.UUID, percent string, opts func(*model.Tariff)) model.Tariff {
	t := model.Tariff{
		ID:                  uuid.New(),
		InsurerID:           insurerID,
		Priority:            10,
		InsurerSharePercent: pctPtr(percent),
		IsActive:            true,
		Version:             1,
	}
	if opts != nil {
		opts(&t)
	}
	return t
}

func simplePayer(tariffs ...model.Tariff) Payer {
	insurerID := uuid.New()
	if len(tariffs) > 0 {
		insurerID = tariffs[0].InsurerID
	}
	return Payer{
		EnrollmentID: uuid.New(),
		InsurerID:    insurerID,
		PlanID:       uuid.New(),
		InsurerType:  model.InsurerTypeBasic,
		Tariffs:      tariffs,
	}
}

func baseInput(svc model.MedicalService, payers ...Payer) Input {
	return Input{
		ReceptionItemID: uuid.New(),
		PatientID:       uuid.New(),
		ServiceID:       svc.ID,
		DepartmentID:    uuid.New(),
		AsOf:            asOf,
		Service:         svc,
		Factors:         NewFactorRegistry(nil),
		Payers:          payers,
		PatientAge:      40,
		CategoryCode:    "VISIT",
		DepartmentCode:  "GEN",
	}
}

func assertIdentity(t *testing.T, res *Result) {
	t.Helper()
	total := res.FinalPatientShare
	for _, l := range res.Lines {
		total = total.Add(l.CappedAllocation)
	}
	if !total.Equal(res.ServiceAmount) {
		t.Fatalf("allocation identity broken: lines+patient = %s, service amount = %s", total, res.ServiceAmount)
	}
}

func TestAdjudicateSinglePrimaryPercent(t *testing.T) {
	// Scenario A: 70% primary, no cap, no supplementary.
	tariff := percentTariff(uuid.New(), "70", nil)
	res, err := Adjudicate(baseInput(flatService(1_000_000), simplePayer(tariff)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(res.Lines))
	}
	if !res.Lines[0].CappedAllocation.Equal(d(700_000)) {
		t.Errorf("primary line = %s, want 700000", res.Lines[0].CappedAllocation)
	}
	if !res.FinalPatientShare.Equal(d(300_000)) {
		t.Errorf("patient share = %s, want 300000", res.FinalPatientShare)
	}
	assertIdentity(t, res)
}

func TestAdjudicateSupplementaryCapBinds(t *testing.T) {
	// Scenario B: supplementary covers 50% of the 300k remainder, capped at 100k.
	primary := percentTariff(uuid.New(), "70", nil)
	supplementary := percentTariff(uuid.New(), "50", func(tf *model.Tariff) {
		tf.MaxInsurerPayment = dptr(100_000)
	})

	res, err := Adjudicate(baseInput(flatService(1_000_000), simplePayer(primary), simplePayer(supplementary)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Lines[0].CappedAllocation.Equal(d(700_000)) {
		t.Errorf("primary line = %s, want 700000", res.Lines[0].CappedAllocation)
	}
	if !res.Lines[1].GrossAllocation.Equal(d(150_000)) {
		t.Errorf("supplementary gross = %s, want 150000", res.Lines[1].GrossAllocation)
	}
	if !res.Lines[1].CappedAllocation.Equal(d(100_000)) {
		t.Errorf("supplementary capped = %s, want 100000", res.Lines[1].CappedAllocation)
	}
	if !res.FinalPatientShare.Equal(d(200_000)) {
		t.Errorf("patient share = %s, want 200000", res.FinalPatientShare)
	}
	if !res.TotalInsurerShare.Equal(d(800_000)) {
		t.Errorf("total insurer share = %s, want 800000", res.TotalInsurerShare)
	}
	assertIdentity(t, res)
}

func TestAdjudicateCopayFloorReclaimsFromLastPayer(t *testing.T) {
	// Scenario C: full coverage would leave the patient at zero; the 50k floor
	// on the primary tariff must come out of the lowest-priority payer's line.
	primary := percentTariff(uuid.New(), "70", func(tf *model.Tariff) {
		tf.MinPatientCopay = dptr(50_000)
	})
	supplementary := percentTariff(uuid.New(), "100", nil)

	res, err := Adjudicate(baseInput(flatService(1_000_000), simplePayer(primary), simplePayer(supplementary)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.FinalPatientShare.Equal(d(50_000)) {
		t.Errorf("patient share = %s, want 50000", res.FinalPatientShare)
	}
	if !res.Lines[0].CappedAllocation.Equal(d(700_000)) {
		t.Errorf("primary line must be protected, got %s", res.Lines[0].CappedAllocation)
	}
	if !res.Lines[1].CappedAllocation.Equal(d(250_000)) {
		t.Errorf("supplementary line = %s, want 250000 after floor reclaim", res.Lines[1].CappedAllocation)
	}
	assertIdentity(t, res)
}

func TestAdjudicateCopayFloorSpillsIntoPrimary(t *testing.T) {
	// When the last payer's line cannot absorb the whole floor, the remainder
	// comes out of the next payer up.
	primary := percentTariff(uuid.New(), "90", func(tf *model.Tariff) {
		tf.MinPatientCopay = dptr(200_000)
	})
	supplementary := percentTariff(uuid.New(), "100", nil)

	res, err := Adjudicate(baseInput(flatService(1_000_000), simplePayer(primary), simplePayer(supplementary)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 900k + 100k covered, floor 200k: supplementary drops 100k -> 0, primary drops 100k -> 800k.
	if !res.Lines[1].CappedAllocation.Equal(d(0)) {
		t.Errorf("supplementary line = %s, want 0", res.Lines[1].CappedAllocation)
	}
	if !res.Lines[0].CappedAllocation.Equal(d(800_000)) {
		t.Errorf("primary line = %s, want 800000", res.Lines[0].CappedAllocation)
	}
	if !res.FinalPatientShare.Equal(d(200_000)) {
		t.Errorf("patient share = %s, want 200000", res.FinalPatientShare)
	}
	assertIdentity(t, res)
}

func TestAdjudicateNoTariffSolePayerFails(t *testing.T) {
	// Scenario D: no active tariff covering asOf.
	expired := percentTariff(uuid.New(), "70", func(tf *model.Tariff) {
		end := asOf.AddDate(0, -1, 0)
		tf.EndDate = &end
	})

	_, err := Adjudicate(baseInput(flatService(1_000_000), simplePayer(expired)))
	if !errors.Is(err, ErrNoApplicableTariff) {
		t.Fatalf("expected ErrNoApplicableTariff, got %v", err)
	}
}

func TestAdjudicateNoTariffSupplementarySkipped(t *testing.T) {
	primary := percentTariff(uuid.New(), "70", nil)
	uncovered := simplePayer() // no tariffs at all

	res, err := Adjudicate(baseInput(flatService(1_000_000), simplePayer(primary), uncovered))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Lines) != 2 || !res.Lines[1].NoCoverage {
		t.Fatalf("expected a no-coverage line for the uncovered payer, got %+v", res.Lines)
	}
	if !res.Lines[1].CappedAllocation.IsZero() {
		t.Errorf("no-coverage line must allocate nothing")
	}
	assertIdentity(t, res)
}

func TestAdjudicateDeductibleBeforePercent(t *testing.T) {
	tariff := percentTariff(uuid.New(), "70", func(tf *model.Tariff) {
		tf.Deductible = dptr(100_000)
	})

	res, err := Adjudicate(baseInput(flatService(1_000_000), simplePayer(tariff)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 70% of (1,000,000 - 100,000) = 630,000.
	if !res.Lines[0].CappedAllocation.Equal(d(630_000)) {
		t.Errorf("line = %s, want 630000", res.Lines[0].CappedAllocation)
	}
	if !res.DeductibleApplied.Equal(d(100_000)) {
		t.Errorf("deductible applied = %s, want 100000", res.DeductibleApplied)
	}
	assertIdentity(t, res)
}

func TestAdjudicateFlatRateTariff(t *testing.T) {
	insurerID := uuid.New()
	flatRate := model.Tariff{
		ID:          uuid.New(),
		InsurerID:   insurerID,
		Priority:    10,
		TariffPrice: dptr(400_000),
		IsActive:    true,
		Version:     1,
	}

	res, err := Adjudicate(baseInput(flatService(1_000_000), simplePayer(flatRate)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Lines[0].CappedAllocation.Equal(d(400_000)) {
		t.Errorf("flat-rate line = %s, want 400000", res.Lines[0].CappedAllocation)
	}
	if res.Lines[0].PercentApplied != nil {
		t.Errorf("flat-rate line must not report a percent")
	}
	assertIdentity(t, res)
}

func TestAdjudicateTariffPriceBoundsPercentBasis(t *testing.T) {
	// Agreed price below the service amount: the percentage applies to the
	// agreed price, not the clinic's own price.
	tariff := percentTariff(uuid.New(), "70", func(tf *model.Tariff) {
		tf.TariffPrice = dptr(800_000)
	})

	res, err := Adjudicate(baseInput(flatService(1_000_000), simplePayer(tariff)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Lines[0].CappedAllocation.Equal(d(560_000)) {
		t.Errorf("line = %s, want 560000 (70%% of 800000)", res.Lines[0].CappedAllocation)
	}
	assertIdentity(t, res)
}

func TestAdjudicateRuleRejectionPreservesPriorLines(t *testing.T) {
	primary := percentTariff(uuid.New(), "70", nil)
	supplementary := percentTariff(uuid.New(), "50", nil)

	rejectingPayer := simplePayer(supplementary)
	rejectingPayer.Rules = []Rule{{
		ID:       uuid.New(),
		RuleType: model.RuleTypeRejection,
		Priority: 100,
		Effects:  []Effect{{Type: EffectReject, Reason: "supplementary excluded for this service"}},
	}}

	res, err := Adjudicate(baseInput(flatService(1_000_000), simplePayer(primary), rejectingPayer))
	var rejected *RuleRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RuleRejectedError, got %v", err)
	}
	if rejected.Reason != "supplementary excluded for this service" {
		t.Errorf("unexpected reason %q", rejected.Reason)
	}
	if res == nil || len(res.Lines) != 1 || !res.Lines[0].CappedAllocation.Equal(d(700_000)) {
		t.Errorf("prior payer's line must survive on the failed result for diagnostics")
	}
}

func TestAdjudicateRuleOverridesPercentAndCap(t *testing.T) {
	tariff := percentTariff(uuid.New(), "70", nil)
	payer := simplePayer(tariff)
	payer.Rules = []Rule{{
		ID:       uuid.New(),
		RuleType: model.RuleTypeAdjustment,
		Priority: 10,
		Effects: []Effect{
			{Type: EffectOverridePercent, Percent: pctPtr("90")},
			{Type: EffectOverrideCap, Amount: dptr(850_000)},
		},
	}}

	res, err := Adjudicate(baseInput(flatService(1_000_000), payer))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Lines[0].GrossAllocation.Equal(d(900_000)) {
		t.Errorf("gross = %s, want 900000 after percent override", res.Lines[0].GrossAllocation)
	}
	if !res.Lines[0].CappedAllocation.Equal(d(850_000)) {
		t.Errorf("capped = %s, want 850000 after cap override", res.Lines[0].CappedAllocation)
	}
	assertIdentity(t, res)
}

func TestAdjudicateHalfToEvenRounding(t *testing.T) {
	// 15% of 4,350 = 652.5: banker's rounding lands on 652, and the odd Rial
	// stays with the patient.
	tariff := percentTariff(uuid.New(), "15", nil)
	res, err := Adjudicate(baseInput(flatService(4_350), simplePayer(tariff)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Lines[0].CappedAllocation.Equal(d(652)) {
		t.Errorf("line = %s, want 652 (half-to-even)", res.Lines[0].CappedAllocation)
	}
	if !res.FinalPatientShare.Equal(d(3_698)) {
		t.Errorf("patient share = %s, want 3698", res.FinalPatientShare)
	}
	assertIdentity(t, res)
}

func TestAdjudicateDeterministic(t *testing.T) {
	primary := percentTariff(uuid.New(), "70", func(tf *model.Tariff) {
		tf.Deductible = dptr(35_000)
		tf.MaxInsurerPayment = dptr(600_000)
	})
	in := baseInput(flatService(937_431), simplePayer(primary))

	first, err := Adjudicate(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Adjudicate(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !first.FinalPatientShare.Equal(second.FinalPatientShare) ||
		!first.TotalInsurerShare.Equal(second.TotalInsurerShare) ||
		len(first.Lines) != len(second.Lines) {
		t.Fatalf("identical inputs produced different results: %+v vs %+v", first, second)
	}
	for i := range first.Lines {
		if !first.Lines[i].CappedAllocation.Equal(second.Lines[i].CappedAllocation) {
			t.Fatalf("line %d differs between runs", i)
		}
	}
}

func TestAdjudicateInvalidPercentConfiguration(t *testing.T) {
	tariff := percentTariff(uuid.New(), "140", nil)
	_, err := Adjudicate(baseInput(flatService(1_000_000), simplePayer(tariff)))
	if !errors.Is(err, ErrInvalidCoverageConfiguration) {
		t.Fatalf("expected ErrInvalidCoverageConfiguration, got %v", err)
	}
}

func TestAdjudicateCapturesSourceVersions(t *testing.T) {
	tariff := percentTariff(uuid.New(), "70", func(tf *model.Tariff) { tf.Version = 7 })
	res, err := Adjudicate(baseInput(flatService(1_000_000), simplePayer(tariff)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.SourceVersions.Tariffs[tariff.ID.String()]; got != 7 {
		t.Errorf("captured tariff version = %d, want 7", got)
	}
}
