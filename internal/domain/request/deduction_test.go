package request

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateDaysOff(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"single day", date(2025, 3, 10), date(2025, 3, 10), 1},
		{"three days", date(2025, 3, 10), date(2025, 3, 12), 3},
		{"across month boundary", date(2025, 1, 30), date(2025, 2, 2), 4},
		{"across year boundary", date(2025, 12, 30), date(2026, 1, 2), 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculateDaysOff(tc.start, tc.end)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d days, got %d", tc.want, got)
			}
		})
	}
}

func TestCalculateDaysOffReversedRange(t *testing.T) {
	if _, err := CalculateDaysOff(date(2025, 3, 12), date(2025, 3, 10)); err == nil {
		t.Fatal("expected error for end before start")
	}
}

func TestComputeDeduction(t *testing.T) {
	cases := []struct {
		name string
		req  TimeOffRequest
		want Deduction
	}{
		{"days off", TimeOffRequest{Type: TypeDaysOff, DaysOff: 5}, Deduction{Days: 5}},
		{"hours off", TimeOffRequest{Type: TypeHoursOff, HoursOff: 3}, Deduction{Hours: 3}},
		{"sick leave never consumes", TimeOffRequest{Type: TypeSickLeave, DaysOff: 0, HoursOff: 0}, Deduction{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeDeduction(tc.req); got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestDeriveCounts(t *testing.T) {
	end := date(2025, 6, 13)

	daysOff, hoursOff, err := DeriveCounts(Input{Type: TypeDaysOff, StartDate: date(2025, 6, 9), EndDate: &end})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if daysOff != 5 || hoursOff != 0 {
		t.Fatalf("expected 5 days / 0 hours, got %d/%d", daysOff, hoursOff)
	}

	daysOff, hoursOff, err = DeriveCounts(Input{Type: TypeHoursOff, StartDate: date(2025, 6, 9), HoursRequested: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if daysOff != 0 || hoursOff != 4 {
		t.Fatalf("expected 0 days / 4 hours, got %d/%d", daysOff, hoursOff)
	}

	daysOff, hoursOff, err = DeriveCounts(Input{Type: TypeSickLeave, StartDate: date(2025, 6, 9), EndDate: &end})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if daysOff != 0 || hoursOff != 0 {
		t.Fatalf("expected sick leave to derive zero counts, got %d/%d", daysOff, hoursOff)
	}
}

func TestDeriveCountsValidation(t *testing.T) {
	if _, _, err := DeriveCounts(Input{Type: TypeDaysOff, StartDate: date(2025, 6, 9)}); err == nil {
		t.Fatal("expected error for days off without end date")
	}

	start := date(2025, 6, 9)
	end := date(2025, 6, 1)
	if _, _, err := DeriveCounts(Input{Type: TypeDaysOff, StartDate: start, EndDate: &end}); err == nil {
		t.Fatal("expected error for reversed range")
	}
	if _, _, err := DeriveCounts(Input{Type: TypeSickLeave, StartDate: start, EndDate: &end}); err == nil {
		t.Fatal("expected error for reversed sick leave range")
	}
	if _, _, err := DeriveCounts(Input{Type: "vacation", StartDate: start}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
