package request

import (
	"errors"
	"time"
)

// Deduction is the amount a request consumes from the balance pool on
// approval, and the amount restored when an approved request is reversed.
type Deduction struct {
	Days  int
	Hours int
}

// ComputeDeduction derives the deduction from the counts already persisted
// on the request. It does not recompute from raw dates. Sick leave never
// consumes balance.
func ComputeDeduction(req TimeOffRequest) Deduction {
	switch req.Type {
	case TypeHoursOff:
		return Deduction{Hours: req.HoursOff}
	case TypeDaysOff:
		return Deduction{Days: req.DaysOff}
	default:
		return Deduction{}
	}
}

// CalculateDaysOff returns the inclusive whole-day count between start and
// end, counting both endpoints.
func CalculateDaysOff(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	return wholeDaysBetween(start, end) + 1, nil
}

// DeriveCounts computes the stored daysOff/hoursOff fields for a request.
// days_off counts inclusive days, hours_off carries the requested hours,
// sick_leave stores zero for both.
func DeriveCounts(in Input) (daysOff, hoursOff int, err error) {
	switch in.Type {
	case TypeDaysOff:
		if in.EndDate == nil {
			return 0, 0, errors.New("end date required for days off")
		}
		daysOff, err = CalculateDaysOff(in.StartDate, *in.EndDate)
		return daysOff, 0, err
	case TypeHoursOff:
		return 0, in.HoursRequested, nil
	case TypeSickLeave:
		if in.EndDate == nil {
			return 0, 0, errors.New("end date required for sick leave")
		}
		if in.EndDate.Before(in.StartDate) {
			return 0, 0, errors.New("end date before start date")
		}
		return 0, 0, nil
	default:
		return 0, 0, errors.New("unknown request type")
	}
}

func wholeDaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}
