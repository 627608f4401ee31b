package adjudication

import (
	"fmt"
	"time"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

// tariffWindowContains reports whether the tariff's [start, end) validity
// window contains asOf. A nil bound is unbounded on that side.
func tariffWindowContains(t model.Tariff, asOf time.Time) bool {
	if t.StartDate != nil && asOf.Before(*t.StartDate) {
		return false
	}
	if t.EndDate != nil && !asOf.Before(*t.EndDate) {
		return false
	}
	return true
}

// ResolveTariff selects the single applicable tariff from the candidate set of
// one (insurer, service) pair: active rows whose window contains asOf, lowest
// numeric priority wins. Zero candidates fail with ErrNoApplicableTariff; a
// surviving priority tie is a data-integrity violation and fails with
// ErrAmbiguousTariff instead of guessing.
func ResolveTariff(candidates []model.Tariff, asOf time.Time) (*model.Tariff, error) {
	var best *model.Tariff
	tie := false
	for i := range candidates {
		t := &candidates[i]
		if !t.IsActive || !tariffWindowContains(*t, asOf) {
			continue
		}
		switch {
		case best == nil || t.Priority < best.Priority:
			best = t
			tie = false
		case t.Priority == best.Priority:
			tie = true
		}
	}

	if best == nil {
		return nil, ErrNoApplicableTariff
	}
	if tie {
		return nil, fmt.Errorf("%w: priority %d", ErrAmbiguousTariff, best.Priority)
	}
	return best, nil
}
