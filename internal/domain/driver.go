package domain

import "time"

// DriverState is the single tagged state of a driver. Soft deletion is a
// state, not a separate flag, so "can this driver receive an assignment"
// is one exhaustive switch.
type DriverState string

// List of possible driver states
const (
	DriverActive    DriverState = "ACTIVE"
	DriverSuspended DriverState = "SUSPENDED"
	DriverInactive  DriverState = "INACTIVE"
	DriverDeleted   DriverState = "DELETED"
)

var allowedDriverStates = [...]DriverState{
	DriverActive, DriverSuspended, DriverInactive, DriverDeleted,
}

// Valid checks if the DriverState is a known state.
func (s DriverState) Valid() bool {
	for _, v := range allowedDriverStates {
		if s == v {
			return true
		}
	}
	return false
}

// Deleted reports whether the state means soft-deleted.
func (s DriverState) Deleted() bool { return s == DriverDeleted }

// CanReceiveAssignment reports whether a driver in this state may be
// assigned a vehicle. Only ACTIVE qualifies.
func (s DriverState) CanReceiveAssignment() bool {
	switch s {
	case DriverActive:
		return true
	case DriverSuspended, DriverInactive, DriverDeleted:
		return false
	default:
		return false
	}
}

// Driver represents a fleet driver.
type Driver struct {
	ID            int64
	FirstName     string
	LastName      string
	Phone         string
	LicenseNumber string
	State         DriverState
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PartialDriverUpdate carries optional fields to update a driver.
// A nil field means "do not change" that attribute.
type PartialDriverUpdate struct {
	ID        int64
	FirstName *string
	LastName  *string
	Phone     *string
	State     *DriverState
}

// DriverFilter narrows driver listings.
type DriverFilter struct {
	State          *DriverState
	Search         string
	IncludeDeleted bool
}
