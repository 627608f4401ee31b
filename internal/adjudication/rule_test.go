package adjudication

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

func storedRule(conditions, actions string) model.BusinessRule {
	return model.BusinessRule{
		ID:         uuid.New(),
		Name:       "test rule",
		RuleType:   model.RuleTypeAdjustment,
		Priority:   10,
		Conditions: conditions,
		Actions:    actions,
		IsActive:   true,
		Version:    1,
	}
}

func TestParseRuleRoundTrip(t *testing.T) {
	stored := storedRule(
		`{"all":[{"field":"service_amount","op":"gte","value":"500000"},{"field":"insurer_type","op":"eq","value":"BASIC"}]}`,
		`[{"type":"override_percent","percent":"80"}]`,
	)

	rule, err := ParseRule(stored)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rule.Effects) != 1 || rule.Effects[0].Type != EffectOverridePercent {
		t.Fatalf("unexpected effects: %+v", rule.Effects)
	}
	if !rule.Effects[0].Percent.Equal(decimal.NewFromInt(80)) {
		t.Errorf("percent = %s, want 80", rule.Effects[0].Percent)
	}
}

func TestParseRuleRejectsBadInput(t *testing.T) {
	cases := []struct {
		name       string
		conditions string
		actions    string
	}{
		{"malformed condition json", `{"all":`, `[{"type":"reject","reason":"x"}]`},
		{"unknown field", `{"field":"moon_phase","op":"eq","value":"full"}`, `[{"type":"reject","reason":"x"}]`},
		{"unknown operator", `{"field":"patient_age","op":"near","value":"30"}`, `[{"type":"reject","reason":"x"}]`},
		{"empty actions", `{}`, `[]`},
		{"percent above 100", `{}`, `[{"type":"override_percent","percent":"150"}]`},
		{"negative cap", `{}`, `[{"type":"override_cap","amount":"-5"}]`},
		{"reject without reason", `{}`, `[{"type":"reject"}]`},
		{"unknown action", `{}`, `[{"type":"discount_everything"}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseRule(storedRule(tc.conditions, tc.actions)); err == nil {
				t.Fatal("expected a parse error")
			}
		})
	}
}

func TestConditionEval(t *testing.T) {
	ctx := RuleContext{
		ServiceAmount:   decimal.NewFromInt(750_000),
		PatientAge:      67,
		InsurerType:     model.InsurerTypeBasic,
		ServiceCategory: "IMAGING",
		Department:      "RAD",
	}

	cases := []struct {
		name string
		cond Condition
		want bool
	}{
		{"wildcard", Condition{}, true},
		{"amount gte", Condition{Field: FieldServiceAmount, Op: OpGte, Value: "750000"}, true},
		{"amount lt", Condition{Field: FieldServiceAmount, Op: OpLt, Value: "750000"}, false},
		{"age gt", Condition{Field: FieldPatientAge, Op: OpGt, Value: "65"}, true},
		{"category in-list", Condition{Field: FieldServiceCategory, Op: OpIn, In: []string{"LAB", "IMAGING"}}, true},
		{"department ne", Condition{Field: FieldDepartment, Op: OpNe, Value: "RAD"}, false},
		{
			"all combinator",
			Condition{All: []Condition{
				{Field: FieldInsurerType, Op: OpEq, Value: model.InsurerTypeBasic},
				{Field: FieldPatientAge, Op: OpGte, Value: "65"},
			}},
			true,
		},
		{
			"any combinator",
			Condition{Any: []Condition{
				{Field: FieldDepartment, Op: OpEq, Value: "LAB"},
				{Field: FieldDepartment, Op: OpEq, Value: "RAD"},
			}},
			true,
		},
		{"not", Condition{Not: &Condition{Field: FieldInsurerType, Op: OpEq, Value: model.InsurerTypeBasic}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.cond.Eval(ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("eval = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvaluateRulesPriorityDescending(t *testing.T) {
	low := Rule{
		ID: uuid.New(), RuleType: model.RuleTypeAdjustment, Priority: 1,
		Effects: []Effect{{Type: EffectOverridePercent, Percent: pctPtr("60")}},
	}
	high := Rule{
		ID: uuid.New(), RuleType: model.RuleTypeAdjustment, Priority: 50,
		Effects: []Effect{{Type: EffectOverridePercent, Percent: pctPtr("90")}},
	}

	effects, err := EvaluateRules([]Rule{low, high}, RuleContext{AsOf: asOf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(effects) != 2 || !effects[0].Percent.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("high-priority rule must be evaluated first, got %+v", effects)
	}
}

func TestEvaluateRulesRejectShortCircuits(t *testing.T) {
	reject := Rule{
		ID: uuid.New(), RuleType: model.RuleTypeRejection, Priority: 100,
		Effects: []Effect{{Type: EffectReject, Reason: "service excluded from plan"}},
	}
	after := Rule{
		ID: uuid.New(), RuleType: model.RuleTypeAdjustment, Priority: 1,
		Effects: []Effect{{Type: EffectOverridePercent, Percent: pctPtr("90")}},
	}

	effects, err := EvaluateRules([]Rule{after, reject}, RuleContext{AsOf: asOf})
	var rejected *RuleRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RuleRejectedError, got %v", err)
	}
	if rejected.Reason != "service excluded from plan" {
		t.Errorf("reason = %q", rejected.Reason)
	}
	if len(effects) != 0 {
		t.Errorf("lower-priority rule must not run after rejection, got %+v", effects)
	}
}

func TestEvaluateRulesScopeAndWindow(t *testing.T) {
	planID := uuid.New()
	otherPlan := uuid.New()

	scoped := Rule{
		ID: uuid.New(), RuleType: model.RuleTypeAdjustment, Priority: 10,
		InsurancePlanID: &otherPlan,
		Effects:         []Effect{{Type: EffectOverridePercent, Percent: pctPtr("90")}},
	}
	expired := Rule{
		ID: uuid.New(), RuleType: model.RuleTypeAdjustment, Priority: 10,
		EndDate: datePtr(2025, 1, 1),
		Effects: []Effect{{Type: EffectOverrideCap, Amount: dptr(10)}},
	}
	wildcard := Rule{
		ID: uuid.New(), RuleType: model.RuleTypeAdjustment, Priority: 5,
		Effects: []Effect{{Type: EffectOverrideDeductible, Amount: dptr(1_000)}},
	}

	effects, err := EvaluateRules([]Rule{scoped, expired, wildcard}, RuleContext{AsOf: asOf, InsurancePlanID: planID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(effects) != 1 || effects[0].Type != EffectOverrideDeductible {
		t.Fatalf("only the wildcard rule applies, got %+v", effects)
	}
}
