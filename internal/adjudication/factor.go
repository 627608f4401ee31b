package adjudication

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

// FactorRegistry resolves year-frozen financial factor values over a set of
// already-loaded records. Pure lookup, no side effects.
type FactorRegistry struct {
	factors []model.FinancialFactor
}

func NewFactorRegistry(factors []model.FinancialFactor) *FactorRegistry {
	return &FactorRegistry{factors: factors}
}

// Resolve returns the frozen factor value for (factorType, scope, year).
// Zero frozen matches fail with ErrFactorNotFrozen even when an unfrozen draft
// exists; more than one frozen match is a data-integrity violation and fails
// with ErrAmbiguousFactor rather than picking one.
func (r *FactorRegistry) Resolve(factorType, scope string, year int) (decimal.Decimal, error) {
	var matched []model.FinancialFactor
	for _, f := range r.factors {
		if f.FactorType != factorType || f.Scope != scope || f.FinancialYear != year {
			continue
		}
		if !f.IsFrozen {
			continue
		}
		matched = append(matched, f)
	}

	switch len(matched) {
	case 0:
		return decimal.Zero, fmt.Errorf("%w: type=%s scope=%s year=%d", ErrFactorNotFrozen, factorType, scope, year)
	case 1:
		return matched[0].Value, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: type=%s scope=%s year=%d (%d rows)", ErrAmbiguousFactor, factorType, scope, year, len(matched))
	}
}

// Versions reports the version token of every loaded factor record, keyed by
// id string, for the recorder's optimistic concurrency check.
func (r *FactorRegistry) Versions() map[string]int {
	out := make(map[string]int, len(r.factors))
	for _, f := range r.factors {
		out[f.ID.String()] = f.Version
	}
	return out
}
