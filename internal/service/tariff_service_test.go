package service

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validTariffRequest() TariffRequest {
	return TariffRequest{
		InsurerID:           "2b1f0a94-6f3e-4e8e-9f2a-111111111111",
		ServiceID:           "2b1f0a94-6f3e-4e8e-9f2a-222222222222",
		Priority:            1,
		InsurerSharePercent: "70",
		StartDate:           "2025-03-21",
	}
}

func TestTariffFromRequestValid(t *testing.T) {
	tariff, err := tariffFromRequest(validTariffRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tariff.InsurerSharePercent == nil || !tariff.InsurerSharePercent.Equal(d("70")) {
		t.Errorf("insurer share percent not parsed: %+v", tariff.InsurerSharePercent)
	}
	if !tariff.IsActive {
		t.Error("tariff should default to active")
	}
	if tariff.StartDate == nil || tariff.EndDate != nil {
		t.Errorf("window parsed wrong: start=%v end=%v", tariff.StartDate, tariff.EndDate)
	}
}

func TestTariffFromRequestRejects(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*TariffRequest)
		wantErr string
	}{
		{
			"negative percent",
			func(r *TariffRequest) { r.InsurerSharePercent = "-5" },
			"must not be negative",
		},
		{
			"percent above 100",
			func(r *TariffRequest) { r.InsurerSharePercent = "140" },
			"within [0,100]",
		},
		{
			"neither percent nor price",
			func(r *TariffRequest) { r.InsurerSharePercent = "" },
			"insurer_share_percent or a tariff_price",
		},
		{
			"cap below copay floor",
			func(r *TariffRequest) { r.MaxInsurerPayment = "40000"; r.MinPatientCopay = "50000" },
			"must not be below min_patient_copay",
		},
		{
			"end before start",
			func(r *TariffRequest) { r.EndDate = "2025-01-01" },
			"end_date must be after start_date",
		},
		{
			"bad insurer id",
			func(r *TariffRequest) { r.InsurerID = "not-a-uuid" },
			"invalid insurer_id",
		},
		{
			"garbage amount",
			func(r *TariffRequest) { r.Deductible = "12,000" },
			"invalid deductible",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validTariffRequest()
			tc.mutate(&req)
			_, err := tariffFromRequest(req)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.wantErr)
			}
		})
	}
}

func TestTariffFromRequestFlatRateOnly(t *testing.T) {
	req := validTariffRequest()
	req.InsurerSharePercent = ""
	req.TariffPrice = "600000"

	tariff, err := tariffFromRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tariff.InsurerSharePercent != nil {
		t.Error("percent should be nil for flat-rate tariffs")
	}
	if tariff.TariffPrice == nil || !tariff.TariffPrice.Equal(d("600000")) {
		t.Errorf("tariff price not parsed: %+v", tariff.TariffPrice)
	}
}
