package kafka

import (
	"time"

	"service-fleet/internal/domain"
)

// Event types carried on the assignment topic.
const (
	EventAssigned   = "assigned"
	EventUnassigned = "unassigned"
)

// EventDTO is the wire form of one assignment lifecycle event.
type EventDTO struct {
	Type         string    `json:"type"`
	AssignmentID int64     `json:"assignment_id"`
	DriverID     int64     `json:"driver_id"`
	VehicleID    int64     `json:"vehicle_id"`
	AssignedBy   string    `json:"assigned_by"`
	At           time.Time `json:"at"`
}

// FromAssignment builds an EventDTO from a domain record.
func FromAssignment(eventType string, a domain.Assignment, at time.Time) EventDTO {
	return EventDTO{
		Type:         eventType,
		AssignmentID: a.ID,
		DriverID:     a.DriverID,
		VehicleID:    a.VehicleID,
		AssignedBy:   a.AssignedBy,
		At:           at,
	}
}
