package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"service-fleet/internal/apperr"
	"service-fleet/internal/domain"
	"service-fleet/internal/service/auth"
)

type stubUsers struct {
	getFn func(ctx context.Context, username string) (*domain.User, error)
}

func (s stubUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, username)
}

func TestService_Login_Success(t *testing.T) {
	t.Parallel()

	users := stubUsers{getFn: func(_ context.Context, username string) (*domain.User, error) {
		require.Equal(t, "dispatcher", username)
		return &domain.User{
			ID:           1,
			Username:     "dispatcher",
			PasswordHash: auth.HashPassword("s3cret"),
			Role:         "DISPATCHER",
		}, nil
	}}

	svc := auth.NewService(users, 3*time.Second, nil)

	u, err := svc.Login(context.Background(), " dispatcher ", "s3cret")
	require.NoError(t, err)
	require.Equal(t, int64(1), u.ID)
	require.Equal(t, "DISPATCHER", u.Role)
}

func TestService_Login_WrongPassword(t *testing.T) {
	t.Parallel()

	users := stubUsers{getFn: func(context.Context, string) (*domain.User, error) {
		return &domain.User{ID: 1, Username: "dispatcher", PasswordHash: auth.HashPassword("s3cret")}, nil
	}}
	svc := auth.NewService(users, 3*time.Second, nil)

	_, err := svc.Login(context.Background(), "dispatcher", "wrong")
	require.ErrorIs(t, err, apperr.Invalid)
	require.ErrorContains(t, err, "invalid credentials")
}

func TestService_Login_UnknownUserSameError(t *testing.T) {
	t.Parallel()

	svc := auth.NewService(stubUsers{}, 3*time.Second, nil)

	_, err := svc.Login(context.Background(), "nobody", "s3cret")
	require.ErrorIs(t, err, apperr.Invalid)
	require.ErrorContains(t, err, "invalid credentials")
}

func TestService_Login_EmptyInput(t *testing.T) {
	t.Parallel()

	svc := auth.NewService(stubUsers{}, 3*time.Second, nil)

	_, err := svc.Login(context.Background(), "  ", "pw")
	require.ErrorIs(t, err, apperr.Invalid)

	_, err = svc.Login(context.Background(), "dispatcher", "")
	require.ErrorIs(t, err, apperr.Invalid)
}

func TestService_Login_RepoError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("db down")
	users := stubUsers{getFn: func(context.Context, string) (*domain.User, error) { return nil, wantErr }}
	svc := auth.NewService(users, 3*time.Second, nil)

	_, err := svc.Login(context.Background(), "dispatcher", "s3cret")
	require.ErrorIs(t, err, wantErr)
}
