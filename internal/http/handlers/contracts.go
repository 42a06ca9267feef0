package handlers

import (
	"context"

	"service-fleet/internal/domain"
)

type authService interface {
	Login(ctx context.Context, username, password string) (domain.User, error)
}
