package adjudication

import (
	"errors"
	"testing"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

func TestFactorRegistryResolve(t *testing.T) {
	registry := NewFactorRegistry([]model.FinancialFactor{
		frozenFactor(model.FactorTypeGeneral, model.FactorScopePublic, 2025, 100_000),
		frozenFactor(model.FactorTypeGeneral, model.FactorScopePrivate, 2025, 180_000),
		frozenFactor(model.FactorTypeGeneral, model.FactorScopePublic, 2024, 80_000),
	})

	value, err := registry.Resolve(model.FactorTypeGeneral, model.FactorScopePublic, 2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !value.Equal(d(100_000)) {
		t.Errorf("value = %s, want 100000", value)
	}

	value, err = registry.Resolve(model.FactorTypeGeneral, model.FactorScopePublic, 2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !value.Equal(d(80_000)) {
		t.Errorf("prior year value = %s, want 80000", value)
	}
}

func TestFactorRegistryNotFrozen(t *testing.T) {
	draft := frozenFactor(model.FactorTypeGeneral, model.FactorScopePublic, 2025, 100_000)
	draft.IsFrozen = false
	draft.FrozenAt = nil

	registry := NewFactorRegistry([]model.FinancialFactor{draft})
	if _, err := registry.Resolve(model.FactorTypeGeneral, model.FactorScopePublic, 2025); !errors.Is(err, ErrFactorNotFrozen) {
		t.Fatalf("draft factor must not resolve, got %v", err)
	}

	if _, err := registry.Resolve(model.FactorTypeGeneral, model.FactorScopePublic, 2030); !errors.Is(err, ErrFactorNotFrozen) {
		t.Fatalf("missing year must fail with ErrFactorNotFrozen, got %v", err)
	}
}

func TestFactorRegistryAmbiguous(t *testing.T) {
	registry := NewFactorRegistry([]model.FinancialFactor{
		frozenFactor(model.FactorTypeGeneral, model.FactorScopePublic, 2025, 100_000),
		frozenFactor(model.FactorTypeGeneral, model.FactorScopePublic, 2025, 110_000),
	})

	// Two frozen rows for one tuple is a data-integrity violation; never pick first.
	if _, err := registry.Resolve(model.FactorTypeGeneral, model.FactorScopePublic, 2025); !errors.Is(err, ErrAmbiguousFactor) {
		t.Fatalf("expected ErrAmbiguousFactor, got %v", err)
	}
}
