package assignmenttx

import (
	"context"
	"time"

	"service-fleet/internal/domain"
)

// Repository is the slice of assignment storage visible inside a transaction.
type Repository interface {
	FindActiveByDriverForUpdate(ctx context.Context, driverID int64) (*domain.Assignment, error)
	Deactivate(ctx context.Context, id int64, at time.Time) (*domain.Assignment, error)
}

// Runner opens a transaction around fn; fn returning an error rolls back.
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
