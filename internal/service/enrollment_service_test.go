package service

import (
	"strings"
	"testing"
)

func validEnrollmentRequest() EnrollmentRequest {
	return EnrollmentRequest{
		PatientID: "2b1f0a94-6f3e-4e8e-9f2a-444444444444",
		InsurerID: "2b1f0a94-6f3e-4e8e-9f2a-555555555555",
		PlanID:    "2b1f0a94-6f3e-4e8e-9f2a-666666666666",
		Priority:  1,
		StartDate: "2025-01-01",
	}
}

func TestEnrollmentFromRequestValid(t *testing.T) {
	enrollment, err := enrollmentFromRequest(validEnrollmentRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enrollment.Priority != 1 || !enrollment.IsActive {
		t.Errorf("priority=%d active=%v, want primary active enrollment", enrollment.Priority, enrollment.IsActive)
	}
	if enrollment.EndDate != nil || enrollment.SupplementaryInsurerID != nil {
		t.Error("optional fields should stay nil when absent")
	}
}

func TestEnrollmentFromRequestSupplementaryPair(t *testing.T) {
	req := validEnrollmentRequest()
	req.SupplementaryInsurerID = "2b1f0a94-6f3e-4e8e-9f2a-777777777777"

	if _, err := enrollmentFromRequest(req); err == nil ||
		!strings.Contains(err.Error(), "must be set together") {
		t.Errorf("supplementary insurer without plan should fail, got %v", err)
	}

	req.SupplementaryPlanID = "2b1f0a94-6f3e-4e8e-9f2a-888888888888"
	enrollment, err := enrollmentFromRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enrollment.SupplementaryInsurerID == nil || enrollment.SupplementaryPlanID == nil {
		t.Error("supplementary pair not populated")
	}
}

func TestEnrollmentFromRequestWindow(t *testing.T) {
	req := validEnrollmentRequest()
	req.EndDate = "2024-12-01"
	if _, err := enrollmentFromRequest(req); err == nil ||
		!strings.Contains(err.Error(), "end_date must be after start_date") {
		t.Errorf("inverted window should fail, got %v", err)
	}

	req.EndDate = "2025-12-29"
	enrollment, err := enrollmentFromRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enrollment.EndDate == nil {
		t.Fatal("end date not parsed")
	}
}

func TestEnrollmentFromRequestBadIDs(t *testing.T) {
	req := validEnrollmentRequest()
	req.PatientID = "oops"
	if _, err := enrollmentFromRequest(req); err == nil ||
		!strings.Contains(err.Error(), "invalid patient_id") {
		t.Errorf("bad patient id should fail, got %v", err)
	}
}
