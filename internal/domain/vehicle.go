package domain

import "time"

// Vehicle represents a fleet vehicle.
type Vehicle struct {
	ID                 int64
	RegistrationNumber string
	Make               string
	Model              string
	Year               int
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PartialVehicleUpdate carries optional fields to update a vehicle.
type PartialVehicleUpdate struct {
	ID                 int64
	RegistrationNumber *string
	Make               *string
	Model              *string
	Year               *int
	Active             *bool
}

// VehicleFilter narrows vehicle listings.
type VehicleFilter struct {
	ActiveOnly bool
	Search     string
}
