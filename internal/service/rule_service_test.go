package service

import (
	"strings"
	"testing"
)

func validRuleRequest() BusinessRuleRequest {
	return BusinessRuleRequest{
		Name:       "senior discount",
		RuleType:   "ADJUSTMENT",
		Priority:   10,
		Conditions: `{"field":"patient_age","op":"gte","value":"65"}`,
		Actions:    `[{"type":"override_percent","percent":"90"}]`,
	}
}

func TestRuleFromRequestValid(t *testing.T) {
	rule, err := ruleFromRequest(validRuleRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rule.IsActive {
		t.Errorf("rule should default to active")
	}
	if rule.InsurancePlanID != nil || rule.ServiceID != nil || rule.ServiceCategoryID != nil {
		t.Errorf("empty scope ids should stay nil (wildcard)")
	}
}

func TestRuleFromRequestScopedValid(t *testing.T) {
	req := validRuleRequest()
	req.ServiceID = "2b1f0a94-6f3e-4e8e-9f2a-111111111111"
	req.StartDate = "2025-03-21"

	rule, err := ruleFromRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.ServiceID == nil {
		t.Fatalf("service scope should be set")
	}
	if rule.StartDate == nil {
		t.Fatalf("start date should be set")
	}
}

func TestRuleFromRequestRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BusinessRuleRequest)
		wantErr string
	}{
		{
			name:    "bad scope uuid",
			mutate:  func(r *BusinessRuleRequest) { r.InsurancePlanID = "not-a-uuid" },
			wantErr: "invalid insurance_plan_id",
		},
		{
			name:    "bad start date",
			mutate:  func(r *BusinessRuleRequest) { r.StartDate = "march" },
			wantErr: "invalid start_date",
		},
		{
			name:    "malformed conditions json",
			mutate:  func(r *BusinessRuleRequest) { r.Conditions = `{"field":` },
			wantErr: "invalid conditions",
		},
		{
			name:    "unknown condition operator",
			mutate:  func(r *BusinessRuleRequest) { r.Conditions = `{"field":"patient_age","op":"near","value":"65"}` },
			wantErr: "op",
		},
		{
			name:    "empty actions",
			mutate:  func(r *BusinessRuleRequest) { r.Actions = `[]` },
			wantErr: "no actions",
		},
		{
			name:    "reject action without reason",
			mutate:  func(r *BusinessRuleRequest) { r.Actions = `[{"type":"reject"}]` },
			wantErr: "reason",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRuleRequest()
			tt.mutate(&req)
			_, err := ruleFromRequest(req)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
