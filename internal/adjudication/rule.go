package adjudication

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

// Condition fields
const (
	FieldServiceAmount   = "service_amount"
	FieldPatientAge      = "patient_age"
	FieldInsurerType     = "insurer_type"
	FieldServiceCategory = "service_category"
	FieldDepartment      = "department"
)

// Comparison operators
const (
	OpEq  = "eq"
	OpNe  = "ne"
	OpGt  = "gt"
	OpGte = "gte"
	OpLt  = "lt"
	OpLte = "lte"
	OpIn  = "in"
)

// Effect types
const (
	EffectOverridePercent    = "override_percent"
	EffectOverrideCap        = "override_cap"
	EffectOverrideDeductible = "override_deductible"
	EffectReject             = "reject"
)

// Condition is one node of the tagged-variant predicate AST stored on a
// business rule. Exactly one of All/Any/Not or the Field/Op leaf is set; a
// zero node matches everything (wildcard). Conditions are data, never
// executable text.
type Condition struct {
	All   []Condition `json:"all,omitempty"`
	Any   []Condition `json:"any,omitempty"`
	Not   *Condition  `json:"not,omitempty"`
	Field string      `json:"field,omitempty"`
	Op    string      `json:"op,omitempty"`
	Value string      `json:"value,omitempty"`
	In    []string    `json:"in,omitempty"`
}

// Effect is one action of a matched rule. Overrides shape a single payer's
// in-memory computation; Reject aborts the adjudication with a reason.
type Effect struct {
	Type       string           `json:"type"`
	Percent    *decimal.Decimal `json:"percent,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	SourceRule uuid.UUID        `json:"-"`
}

// Rule is the parsed, evaluatable form of a stored BusinessRule.
type Rule struct {
	ID                uuid.UUID
	RuleType          string
	Priority          int
	InsurancePlanID   *uuid.UUID
	ServiceCategoryID *uuid.UUID
	ServiceID         *uuid.UUID
	StartDate         *time.Time
	EndDate           *time.Time
	Condition         Condition
	Effects           []Effect
	Version           int
}

// RuleContext carries the adjudication facts a condition may inspect.
type RuleContext struct {
	AsOf              time.Time
	ServiceAmount     decimal.Decimal
	PatientAge        int
	InsurerType       string
	ServiceCategory   string // category code
	Department        string // department code
	InsurancePlanID   uuid.UUID
	ServiceID         uuid.UUID
	ServiceCategoryID uuid.UUID
}

// ParseRule decodes and validates a stored rule's condition and action JSON.
// Parsing happens once at load time so a malformed rule fails the whole
// adjudication loudly instead of being skipped.
func ParseRule(stored model.BusinessRule) (Rule, error) {
	var cond Condition
	if err := json.Unmarshal([]byte(stored.Conditions), &cond); err != nil {
		return Rule{}, fmt.Errorf("rule %s: invalid conditions: %w", stored.ID, err)
	}
	if err := validateCondition(cond); err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", stored.ID, err)
	}

	var effects []Effect
	if err := json.Unmarshal([]byte(stored.Actions), &effects); err != nil {
		return Rule{}, fmt.Errorf("rule %s: invalid actions: %w", stored.ID, err)
	}
	if len(effects) == 0 {
		return Rule{}, fmt.Errorf("rule %s: no actions", stored.ID)
	}
	for i := range effects {
		effects[i].SourceRule = stored.ID
		if err := validateEffect(effects[i]); err != nil {
			return Rule{}, fmt.Errorf("rule %s: %w", stored.ID, err)
		}
	}

	return Rule{
		ID:                stored.ID,
		RuleType:          stored.RuleType,
		Priority:          stored.Priority,
		InsurancePlanID:   stored.InsurancePlanID,
		ServiceCategoryID: stored.ServiceCategoryID,
		ServiceID:         stored.ServiceID,
		StartDate:         stored.StartDate,
		EndDate:           stored.EndDate,
		Condition:         cond,
		Effects:           effects,
		Version:           stored.Version,
	}, nil
}

func validateCondition(c Condition) error {
	branches := 0
	if len(c.All) > 0 {
		branches++
		for _, child := range c.All {
			if err := validateCondition(child); err != nil {
				return err
			}
		}
	}
	if len(c.Any) > 0 {
		branches++
		for _, child := range c.Any {
			if err := validateCondition(child); err != nil {
				return err
			}
		}
	}
	if c.Not != nil {
		branches++
		if err := validateCondition(*c.Not); err != nil {
			return err
		}
	}
	if c.Field != "" {
		branches++
		switch c.Field {
		case FieldServiceAmount, FieldPatientAge, FieldInsurerType, FieldServiceCategory, FieldDepartment:
		default:
			return fmt.Errorf("unknown condition field %q", c.Field)
		}
		switch c.Op {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
			if c.Value == "" {
				return fmt.Errorf("condition on %q: missing value", c.Field)
			}
		case OpIn:
			if len(c.In) == 0 {
				return fmt.Errorf("condition on %q: empty in-list", c.Field)
			}
		default:
			return fmt.Errorf("unknown condition operator %q", c.Op)
		}
	}
	if branches > 1 {
		return fmt.Errorf("condition node mixes combinators and leaf fields")
	}
	return nil
}

func validateEffect(e Effect) error {
	switch e.Type {
	case EffectOverridePercent:
		if e.Percent == nil || e.Percent.IsNegative() || e.Percent.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: override percent must be within [0,100]", ErrInvalidCoverageConfiguration)
		}
	case EffectOverrideCap, EffectOverrideDeductible:
		if e.Amount == nil || e.Amount.IsNegative() {
			return fmt.Errorf("%w: %s needs a non-negative amount", ErrInvalidCoverageConfiguration, e.Type)
		}
	case EffectReject:
		if e.Reason == "" {
			return fmt.Errorf("reject action needs a reason")
		}
	default:
		return fmt.Errorf("unknown action type %q", e.Type)
	}
	return nil
}

// Eval interprets the condition against the context. A zero node is true.
func (c Condition) Eval(ctx RuleContext) (bool, error) {
	switch {
	case len(c.All) > 0:
		for _, child := range c.All {
			ok, err := child.Eval(ctx)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case len(c.Any) > 0:
		for _, child := range c.Any {
			ok, err := child.Eval(ctx)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case c.Not != nil:
		ok, err := c.Not.Eval(ctx)
		return !ok, err
	case c.Field != "":
		return evalLeaf(c, ctx)
	default:
		return true, nil
	}
}

func evalLeaf(c Condition, ctx RuleContext) (bool, error) {
	switch c.Field {
	case FieldServiceAmount:
		return compareDecimal(ctx.ServiceAmount, c)
	case FieldPatientAge:
		return compareDecimal(decimal.NewFromInt(int64(ctx.PatientAge)), c)
	case FieldInsurerType:
		return compareString(ctx.InsurerType, c)
	case FieldServiceCategory:
		return compareString(ctx.ServiceCategory, c)
	case FieldDepartment:
		return compareString(ctx.Department, c)
	}
	return false, fmt.Errorf("unknown condition field %q", c.Field)
}

func compareDecimal(have decimal.Decimal, c Condition) (bool, error) {
	if c.Op == OpIn {
		for _, raw := range c.In {
			want, err := decimal.NewFromString(raw)
			if err != nil {
				return false, fmt.Errorf("condition on %q: bad number %q: %w", c.Field, raw, err)
			}
			if have.Equal(want) {
				return true, nil
			}
		}
		return false, nil
	}

	want, err := decimal.NewFromString(c.Value)
	if err != nil {
		return false, fmt.Errorf("condition on %q: bad number %q: %w", c.Field, c.Value, err)
	}
	switch c.Op {
	case OpEq:
		return have.Equal(want), nil
	case OpNe:
		return !have.Equal(want), nil
	case OpGt:
		return have.GreaterThan(want), nil
	case OpGte:
		return have.GreaterThanOrEqual(want), nil
	case OpLt:
		return have.LessThan(want), nil
	case OpLte:
		return have.LessThanOrEqual(want), nil
	}
	return false, fmt.Errorf("operator %q not valid for %q", c.Op, c.Field)
}

func compareString(have string, c Condition) (bool, error) {
	switch c.Op {
	case OpEq:
		return have == c.Value, nil
	case OpNe:
		return have != c.Value, nil
	case OpIn:
		for _, v := range c.In {
			if have == v {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("operator %q not valid for %q", c.Op, c.Field)
}

// scopeMatches reports whether the rule applies to the context. A nil scope
// field is a wildcard.
func (r Rule) scopeMatches(ctx RuleContext) bool {
	if r.InsurancePlanID != nil && *r.InsurancePlanID != ctx.InsurancePlanID {
		return false
	}
	if r.ServiceID != nil && *r.ServiceID != ctx.ServiceID {
		return false
	}
	if r.ServiceCategoryID != nil && *r.ServiceCategoryID != ctx.ServiceCategoryID {
		return false
	}
	return true
}

func (r Rule) windowContains(asOf time.Time) bool {
	if r.StartDate != nil && asOf.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && !asOf.Before(*r.EndDate) {
		return false
	}
	return true
}

// EvaluateRules runs the candidate rules against the context in priority
// descending order and returns the effects of every matching rule. The first
// matching rejection is terminal: evaluation stops and the RuleRejectedError
// is returned together with any adjustment effects gathered before it.
func EvaluateRules(rules []Rule, ctx RuleContext) ([]Effect, error) {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })

	var effects []Effect
	for _, r := range ordered {
		if !r.scopeMatches(ctx) || !r.windowContains(ctx.AsOf) {
			continue
		}
		matched, err := r.Condition.Eval(ctx)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		for _, e := range r.Effects {
			if e.Type == EffectReject {
				return effects, &RuleRejectedError{RuleID: r.ID, Reason: e.Reason}
			}
			effects = append(effects, e)
		}
	}
	return effects, nil
}
