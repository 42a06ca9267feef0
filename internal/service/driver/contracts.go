package driver

import (
	"context"

	"service-fleet/internal/domain"
)

type driverRepository interface {
	Get(ctx context.Context, id int64, includeDeleted bool) (*domain.Driver, error)
	Page(ctx context.Context, f domain.DriverFilter, req domain.PageRequest) ([]domain.Driver, int64, error)
	Create(ctx context.Context, d *domain.Driver) (int64, error)
	UpdatePartial(ctx context.Context, u domain.PartialDriverUpdate) (bool, error)
	SoftDelete(ctx context.Context, id int64) (bool, error)
}

type assignmentChecker interface {
	ExistsActiveByDriver(ctx context.Context, driverID int64) (bool, error)
}
