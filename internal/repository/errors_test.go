package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"service-fleet/internal/apperr"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return false }

func TestIsUnreachable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"connect failure", &pgconn.ConnectError{Config: &pgconn.Config{}}, true},
		{"net timeout", timeoutErr{}, true},
		{"no rows", pgx.ErrNoRows, false},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"caller canceled", context.Canceled, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, IsUnreachable(tc.err))
		})
	}
}

func TestClassify_TimeoutSurfacesAsUnavailable(t *testing.T) {
	t.Parallel()

	// the shape every repo method produces when the database never answers
	err := fmt.Errorf("get user %q: %w", "dispatcher", classify(context.DeadlineExceeded))

	require.ErrorIs(t, err, apperr.Unavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded, "cause stays in the chain")
}

func TestClassify_LeavesQueryErrorsAlone(t *testing.T) {
	t.Parallel()

	cause := errors.New("syntax error")
	require.Equal(t, cause, classify(cause))
	require.NotErrorIs(t, classify(cause), apperr.Unavailable)
}
