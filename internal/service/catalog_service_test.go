package service

import (
	"strings"
	"testing"
)

func flatServiceRequest() MedicalServiceRequest {
	return MedicalServiceRequest{
		Code:       "901234",
		Name:       "Specialist visit",
		CategoryID: "2b1f0a94-6f3e-4e8e-9f2a-333333333333",
		FlatPrice:  "500000",
	}
}

func coefficientServiceRequest() MedicalServiceRequest {
	return MedicalServiceRequest{
		Code:                    "700110",
		Name:                    "Chest X-ray",
		CategoryID:              "2b1f0a94-6f3e-4e8e-9f2a-333333333333",
		IsCoefficientPriced:     true,
		TechnicalCoefficient:    "2.5",
		ProfessionalCoefficient: "1.5",
	}
}

func TestServiceFromRequestFlat(t *testing.T) {
	svc, err := serviceFromRequest(flatServiceRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.FlatPrice == nil || !svc.FlatPrice.Equal(d("500000")) {
		t.Errorf("flat price not parsed: %+v", svc.FlatPrice)
	}
	if svc.TechnicalCoefficient != nil || svc.ProfessionalCoefficient != nil {
		t.Error("flat-priced service must not carry coefficients")
	}
	if svc.FactorScope != "PUBLIC" {
		t.Errorf("default scope = %q, want PUBLIC", svc.FactorScope)
	}
}

func TestServiceFromRequestCoefficient(t *testing.T) {
	svc, err := serviceFromRequest(coefficientServiceRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.FlatPrice != nil {
		t.Error("coefficient-priced service must not carry a flat price")
	}
	if svc.TechnicalCoefficient == nil || !svc.TechnicalCoefficient.Equal(d("2.5")) {
		t.Errorf("technical coefficient not parsed: %+v", svc.TechnicalCoefficient)
	}
}

func TestServiceFromRequestPricingShape(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*MedicalServiceRequest)
		base    func() MedicalServiceRequest
		wantErr string
	}{
		{
			"flat with coefficients",
			func(r *MedicalServiceRequest) { r.TechnicalCoefficient = "2.5" },
			flatServiceRequest,
			"must not carry coefficients",
		},
		{
			"flat without price",
			func(r *MedicalServiceRequest) { r.FlatPrice = "" },
			flatServiceRequest,
			"flat_price is required",
		},
		{
			"coefficient with flat price",
			func(r *MedicalServiceRequest) { r.FlatPrice = "500000" },
			coefficientServiceRequest,
			"must not carry a flat_price",
		},
		{
			"coefficient missing professional",
			func(r *MedicalServiceRequest) { r.ProfessionalCoefficient = "" },
			coefficientServiceRequest,
			"professional_coefficient is required",
		},
		{
			"zero coefficient",
			func(r *MedicalServiceRequest) { r.TechnicalCoefficient = "0" },
			coefficientServiceRequest,
			"must be positive",
		},
		{
			"negative flat price",
			func(r *MedicalServiceRequest) { r.FlatPrice = "-100" },
			flatServiceRequest,
			"must not be negative",
		},
		{
			"unknown scope",
			func(r *MedicalServiceRequest) { r.FactorScope = "MILITARY" },
			flatServiceRequest,
			"invalid factor_scope",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.base()
			tc.mutate(&req)
			_, err := serviceFromRequest(req)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.wantErr)
			}
		})
	}
}
