package domain

import "time"

// Assignment binds one driver to one vehicle. Rows are append-only:
// an assignment is created active and only ever transitions to inactive,
// never back and never deleted. At most one active row may exist per
// driver id and per vehicle id at any instant.
type Assignment struct {
	ID           int64
	DriverID     int64
	VehicleID    int64
	AssignedBy   string
	Active       bool
	AssignedAt   time.Time
	UnassignedAt *time.Time
}

// AssignmentFilter narrows assignment listings. DriverID takes precedence
// over VehicleID, which takes precedence over ActiveOnly.
type AssignmentFilter struct {
	DriverID   *int64
	VehicleID  *int64
	ActiveOnly bool
}
