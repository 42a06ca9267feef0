package repository

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"service-fleet/internal/apperr"
)

// IsDuplicate - signals that the error is a unique constraint violation.
// The partial unique indexes on active assignments surface concurrent
// double-assigns through this path.
func IsDuplicate(err error) bool {
	var pgerr *pgconn.PgError
	return errors.As(err, &pgerr) && pgerr.Code == "23505"
}

// IsNotFound - signals that the error is a no-rows result.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUnreachable - signals that the database never answered: the operation
// timed out or the connection could not be established. The query itself
// may have been fine.
func IsUnreachable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classify tags unreachable-database errors with the Unavailable sentinel
// so callers answer 503, not 500. Every other error passes through as is.
func classify(err error) error {
	if IsUnreachable(err) {
		return fmt.Errorf("%w: %w", apperr.Unavailable, err)
	}
	return err
}
