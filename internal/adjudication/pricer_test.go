package adjudication

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

func frozenFactor(factorType, scope string, year int, value int64) model.FinancialFactor {
	now := time.Now()
	return model.FinancialFactor{
		ID:            uuid.New(),
		FactorType:    factorType,
		Scope:         scope,
		FinancialYear: year,
		Value:         decimal.NewFromInt(value),
		IsFrozen:      true,
		FrozenAt:      &now,
		Version:       1,
	}
}

func TestPriceFlatService(t *testing.T) {
	got, err := Price(flatService(250_000), nil, NewFactorRegistry(nil), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Amount.Equal(d(250_000)) {
		t.Errorf("amount = %s, want 250000", got.Amount)
	}
	if got.CalculationType != model.CalculationTypeFlat {
		t.Errorf("calculation type = %s, want FLAT", got.CalculationType)
	}
}

func TestPriceCoefficientService(t *testing.T) {
	// Scenario E: (2.5 + 1.5) × 100,000 = 400,000.
	svc := model.MedicalService{
		ID:                      uuid.New(),
		Code:                    "700555",
		CategoryID:              uuid.New(),
		IsCoefficientPriced:     true,
		TechnicalCoefficient:    pctPtr("2.5"),
		ProfessionalCoefficient: pctPtr("1.5"),
		FactorScope:             model.FactorScopePublic,
	}
	registry := NewFactorRegistry([]model.FinancialFactor{
		frozenFactor(model.FactorTypeGeneral, model.FactorScopePublic, asOf.Year(), 100_000),
	})

	got, err := Price(svc, nil, registry, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Amount.Equal(d(400_000)) {
		t.Errorf("amount = %s, want 400000", got.Amount)
	}
	if got.CalculationType != model.CalculationTypeCoefficient {
		t.Errorf("calculation type = %s, want COEFFICIENT", got.CalculationType)
	}
}

func TestPriceDepartmentOverrideWins(t *testing.T) {
	svc := model.MedicalService{
		ID:                      uuid.New(),
		Code:                    "700555",
		CategoryID:              uuid.New(),
		IsCoefficientPriced:     true,
		TechnicalCoefficient:    pctPtr("2.5"),
		ProfessionalCoefficient: pctPtr("1.5"),
		FactorScope:             model.FactorScopePublic,
	}
	override := &model.DepartmentServiceCoefficient{
		ServiceID:               svc.ID,
		DepartmentID:            uuid.New(),
		TechnicalCoefficient:    decimal.RequireFromString("3.0"),
		ProfessionalCoefficient: decimal.RequireFromString("2.0"),
	}
	registry := NewFactorRegistry([]model.FinancialFactor{
		frozenFactor(model.FactorTypeGeneral, model.FactorScopePublic, asOf.Year(), 100_000),
	})

	got, err := Price(svc, override, registry, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Amount.Equal(d(500_000)) {
		t.Errorf("amount = %s, want 500000 with department override", got.Amount)
	}
}

func TestPriceRoundsHalfToEven(t *testing.T) {
	svc := model.MedicalService{
		ID:                      uuid.New(),
		Code:                    "700777",
		CategoryID:              uuid.New(),
		IsCoefficientPriced:     true,
		TechnicalCoefficient:    pctPtr("0.0025"),
		ProfessionalCoefficient: pctPtr("0.0040"),
		FactorScope:             model.FactorScopePublic,
	}
	// 0.0065 × 1,250,000 = 8,125 exactly; 0.0065 × 1,250,100 = 8,125.65 → 8,126.
	registry := NewFactorRegistry([]model.FinancialFactor{
		frozenFactor(model.FactorTypeGeneral, model.FactorScopePublic, asOf.Year(), 1_250_100),
	})
	got, err := Price(svc, nil, registry, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Amount.Equal(d(8_126)) {
		t.Errorf("amount = %s, want 8126", got.Amount)
	}
}

func TestPriceMissingCoefficients(t *testing.T) {
	svc := model.MedicalService{ID: uuid.New(), Code: "700888", CategoryID: uuid.New(), IsCoefficientPriced: true}
	_, err := Price(svc, nil, NewFactorRegistry(nil), asOf)
	if !errors.Is(err, ErrInvalidCoverageConfiguration) {
		t.Fatalf("expected ErrInvalidCoverageConfiguration, got %v", err)
	}
}
