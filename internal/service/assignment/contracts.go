package assignment

import (
	"context"

	"service-fleet/internal/domain"
	"service-fleet/internal/ports/assignmenttx"
	"service-fleet/internal/transport/kafka"
)

type driverGetter interface {
	Get(ctx context.Context, id int64, includeDeleted bool) (*domain.Driver, error)
}

type vehicleGetter interface {
	Get(ctx context.Context, id int64) (*domain.Vehicle, error)
}

type userGetter interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type assignmentRepository interface {
	assignmenttx.Runner
	ExistsActiveByDriver(ctx context.Context, driverID int64) (bool, error)
	ExistsActiveByVehicle(ctx context.Context, vehicleID int64) (bool, error)
	Insert(ctx context.Context, a *domain.Assignment) error
	Page(ctx context.Context, f domain.AssignmentFilter, req domain.PageRequest) ([]domain.Assignment, int64, error)
}

type eventPublisher interface {
	Publish(ev kafka.EventDTO) error
}
