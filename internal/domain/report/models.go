package report

import "time"

// Overview is the dashboard snapshot for an organization.
type Overview struct {
	TotalEmployees  int `json:"totalEmployees"`
	PendingRequests int `json:"pendingRequests"`
	OnLeaveToday    int `json:"onLeaveToday"`
	AvailableToday  int `json:"availableToday"`
}

// Shortage flags a day where half or more of the workforce is away.
type Shortage struct {
	Date         time.Time `json:"date"`
	OnLeave      int       `json:"onLeave"`
	Available    int       `json:"available"`
	Availability float64   `json:"availability"`
}

// ExportRow is one request flattened for CSV and PDF export.
type ExportRow struct {
	EmployeeName   string
	EmployeeEmail  string
	Location       string
	Type           string
	Status         string
	StartDate      time.Time
	EndDate        *time.Time
	DaysOff        float64
	HoursOff       float64
	HoursRequested int
	CreatedAt      time.Time
}

// ExportFilter narrows the export result set. Zero values match everything.
type ExportFilter struct {
	Search     string
	Type       string
	Status     string
	LocationID string
	StartDate  *time.Time
	EndDate    *time.Time
}
