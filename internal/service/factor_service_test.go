package service

import (
	"strings"
	"testing"
)

func validFactorRequest() FinancialFactorRequest {
	return FinancialFactorRequest{
		FactorType:    "TECHNICAL",
		Scope:         "PUBLIC",
		FinancialYear: 2025,
		Value:         "730000",
		EffectiveFrom: "2025-03-21",
	}
}

func TestFactorFromRequestValid(t *testing.T) {
	factor, err := factorFromRequest(validFactorRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if factor.Value.String() != "730000" {
		t.Errorf("value = %s, want 730000", factor.Value)
	}
	if factor.FinancialYear != 2025 {
		t.Errorf("financial year = %d, want 2025", factor.FinancialYear)
	}
	if factor.EffectiveTo != nil {
		t.Errorf("effective_to should stay nil when omitted")
	}
	if factor.IsFrozen {
		t.Errorf("new factor must not start frozen")
	}
}

func TestFactorFromRequestRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*FinancialFactorRequest)
		wantErr string
	}{
		{
			name:    "non-numeric value",
			mutate:  func(r *FinancialFactorRequest) { r.Value = "abc" },
			wantErr: "invalid value",
		},
		{
			name:    "zero value",
			mutate:  func(r *FinancialFactorRequest) { r.Value = "0" },
			wantErr: "must be positive",
		},
		{
			name:    "negative value",
			mutate:  func(r *FinancialFactorRequest) { r.Value = "-50" },
			wantErr: "must be positive",
		},
		{
			name:    "bad effective_from",
			mutate:  func(r *FinancialFactorRequest) { r.EffectiveFrom = "21/03/2025" },
			wantErr: "invalid effective_from",
		},
		{
			name:    "bad effective_to",
			mutate:  func(r *FinancialFactorRequest) { r.EffectiveTo = "next year" },
			wantErr: "invalid effective_to",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validFactorRequest()
			tt.mutate(&req)
			_, err := factorFromRequest(req)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
