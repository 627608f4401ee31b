package adjudication

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Typed failures of the adjudication core. Every one of these surfaces to the
// caller with no partial commit; ErrConcurrencyConflict is the only one the
// caller should retry, the rest need administrator correction.
var (
	ErrNoApplicableTariff           = errors.New("no applicable tariff for insurer/service on the requested date")
	ErrAmbiguousTariff              = errors.New("ambiguous tariff: overlapping tariffs share the same priority")
	ErrFactorNotFrozen              = errors.New("no frozen financial factor for the requested year and scope")
	ErrAmbiguousFactor              = errors.New("ambiguous financial factor: more than one frozen factor matches")
	ErrInvalidCoverageConfiguration = errors.New("invalid coverage configuration")
	ErrConcurrencyConflict          = errors.New("source records changed during adjudication")
)

// RuleRejectedError is returned when a rejection rule matches the adjudication
// context. It is terminal: no coverage line is finalized for the rejected
// payer and nothing is recorded.
type RuleRejectedError struct {
	RuleID uuid.UUID
	Reason string
}

func (e *RuleRejectedError) Error() string {
	return fmt.Sprintf("claim rejected by business rule %s: %s", e.RuleID, e.Reason)
}
