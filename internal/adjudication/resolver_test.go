package adjudication

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

func windowTariff(priority int, start, end *time.Time, active bool) model.Tariff {
	return model.Tariff{
		ID:                  uuid.New(),
		InsurerID:           uuid.New(),
		ServiceID:           uuid.New(),
		Priority:            priority,
		InsurerSharePercent: pctPtr("70"),
		StartDate:           start,
		EndDate:             end,
		IsActive:            active,
		Version:             1,
	}
}

func datePtr(y, m, day int) *time.Time {
	t := time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestResolveTariffLowestPriorityWins(t *testing.T) {
	general := windowTariff(100, nil, nil, true)
	specific := windowTariff(10, datePtr(2025, 1, 1), datePtr(2026, 1, 1), true)

	got, err := ResolveTariff([]model.Tariff{general, specific}, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != specific.ID {
		t.Errorf("resolved %s, want the lower-priority row %s", got.ID, specific.ID)
	}
}

func TestResolveTariffWindowBounds(t *testing.T) {
	cases := []struct {
		name  string
		start *time.Time
		end   *time.Time
		want  bool
	}{
		{"open both sides", nil, nil, true},
		{"contains asOf", datePtr(2025, 1, 1), datePtr(2026, 1, 1), true},
		{"starts on asOf", datePtr(2025, 6, 10), nil, true},
		{"ends on asOf, exclusive", nil, datePtr(2025, 6, 10), false},
		{"future window", datePtr(2025, 7, 1), nil, false},
		{"expired window", nil, datePtr(2025, 6, 1), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveTariff([]model.Tariff{windowTariff(10, tc.start, tc.end, true)}, asOf)
			if tc.want && err != nil {
				t.Fatalf("expected a match, got %v", err)
			}
			if !tc.want && !errors.Is(err, ErrNoApplicableTariff) {
				t.Fatalf("expected ErrNoApplicableTariff, got %v", err)
			}
		})
	}
}

func TestResolveTariffInactiveSkipped(t *testing.T) {
	_, err := ResolveTariff([]model.Tariff{windowTariff(10, nil, nil, false)}, asOf)
	if !errors.Is(err, ErrNoApplicableTariff) {
		t.Fatalf("inactive tariff must not resolve, got %v", err)
	}
}

func TestResolveTariffAmbiguousPriority(t *testing.T) {
	a := windowTariff(10, nil, nil, true)
	b := windowTariff(10, nil, nil, true)

	_, err := ResolveTariff([]model.Tariff{a, b}, asOf)
	if !errors.Is(err, ErrAmbiguousTariff) {
		t.Fatalf("equal priorities in one window must fail, got %v", err)
	}
}

func TestResolveTariffTieOutsideWindowIgnored(t *testing.T) {
	// An expired row with the same priority is not part of the candidate set.
	live := windowTariff(10, nil, nil, true)
	expired := windowTariff(10, nil, datePtr(2025, 1, 1), true)

	got, err := ResolveTariff([]model.Tariff{live, expired}, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != live.ID {
		t.Errorf("resolved %s, want %s", got.ID, live.ID)
	}
}
