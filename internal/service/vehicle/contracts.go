package vehicle

import (
	"context"

	"service-fleet/internal/domain"
)

type vehicleRepository interface {
	Get(ctx context.Context, id int64) (*domain.Vehicle, error)
	Page(ctx context.Context, f domain.VehicleFilter, req domain.PageRequest) ([]domain.Vehicle, int64, error)
	Create(ctx context.Context, v *domain.Vehicle) (int64, error)
	UpdatePartial(ctx context.Context, u domain.PartialVehicleUpdate) (bool, error)
}
