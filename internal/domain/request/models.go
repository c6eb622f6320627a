package request

import "time"

const (
	TypeDaysOff   = "days_off"
	TypeHoursOff  = "hours_off"
	TypeSickLeave = "sick_leave"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

var Types = []string{TypeDaysOff, TypeHoursOff, TypeSickLeave}

var Statuses = []string{StatusPending, StatusApproved, StatusDenied}

type TimeOffRequest struct {
	ID             string     `json:"id"`
	OrgID          string     `json:"organizationId"`
	EmployeeID     string     `json:"employeeId"`
	Type           string     `json:"type"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	HoursRequested int        `json:"hoursRequested,omitempty"`
	DaysOff        int        `json:"daysOff"`
	HoursOff       int        `json:"hoursOff"`
	Notes          string     `json:"notes,omitempty"`
	Status         string     `json:"status"`
	ProcessedBy    *string    `json:"processedBy,omitempty"`
	ProcessedAt    *time.Time `json:"processedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Input carries the mutable fields accepted on create and edit.
type Input struct {
	Type           string
	StartDate      time.Time
	EndDate        *time.Time
	HoursRequested int
	Notes          string
}

// Balance is an employee's remaining leave allotment.
type Balance struct {
	Days  int `json:"daysAvailable"`
	Hours int `json:"hoursAvailable"`
}

func IsValidType(t string) bool {
	for _, candidate := range Types {
		if t == candidate {
			return true
		}
	}
	return false
}
