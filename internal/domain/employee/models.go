package employee

import "time"

type Employee struct {
	ID             string    `json:"id"`
	OrgID          string    `json:"organizationId"`
	UserID         string    `json:"userId,omitempty"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	RoleID         string    `json:"roleId,omitempty"`
	RoleName       string    `json:"roleName,omitempty"`
	LocationID     string    `json:"locationId,omitempty"`
	LocationName   string    `json:"locationName,omitempty"`
	DaysAvailable  int       `json:"daysAvailable"`
	HoursAvailable int       `json:"hoursAvailable"`
	AnnualDays     int       `json:"annualDays"`
	AnnualHours    int       `json:"annualHours"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Input carries the admin-editable employee fields.
type Input struct {
	FirstName      string
	LastName       string
	Email          string
	RoleID         string
	LocationID     string
	DaysAvailable  int
	HoursAvailable int
	AnnualDays     int
	AnnualHours    int
}

// Created is returned once at provisioning time; the temporary password is
// not retrievable afterwards.
type Created struct {
	ID                string `json:"id"`
	UserID            string `json:"userId"`
	TemporaryPassword string `json:"temporaryPassword"`
}
