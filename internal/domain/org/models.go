package org

import "time"

// Role is a job role within an organization (e.g. "Barista"), distinct from
// the account-level admin/employee system role.
type Role struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"organizationId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Location struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"organizationId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
