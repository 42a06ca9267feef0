package auth

import (
	"context"

	"service-fleet/internal/domain"
)

type userRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}
