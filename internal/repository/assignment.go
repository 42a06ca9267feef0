package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-fleet/internal/apperr"
	"service-fleet/internal/domain"
	"service-fleet/internal/ports/assignmenttx"
)

// AssignmentRepo represents assignment repository. The table carries
// partial unique indexes on (driver_id) WHERE active and (vehicle_id)
// WHERE active, so a concurrent double-assign loses at insert time no
// matter what the preceding existence checks saw.
type AssignmentRepo struct {
	db *pgxpool.Pool
}

// NewAssignmentRepo creates a new AssignmentRepo.
func NewAssignmentRepo(db *pgxpool.Pool) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

const assignmentColumns = `id, driver_id, vehicle_id, assigned_by, active, assigned_at, unassigned_at`

func scanAssignment(row interface{ Scan(...any) error }) (*domain.Assignment, error) {
	var a domain.Assignment
	err := row.Scan(&a.ID, &a.DriverID, &a.VehicleID, &a.AssignedBy,
		&a.Active, &a.AssignedAt, &a.UnassignedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindActiveByDriver returns the active assignment of a driver, or (nil, nil).
func (r *AssignmentRepo) FindActiveByDriver(ctx context.Context, driverID int64) (*domain.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM vehicle_assignments WHERE driver_id=$1 AND active`, driverID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active assignment for driver %d: %w", driverID, classify(err))
	}
	return a, nil
}

// FindActiveByVehicle returns the active assignment of a vehicle, or (nil, nil).
func (r *AssignmentRepo) FindActiveByVehicle(ctx context.Context, vehicleID int64) (*domain.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM vehicle_assignments WHERE vehicle_id=$1 AND active`, vehicleID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active assignment for vehicle %d: %w", vehicleID, classify(err))
	}
	return a, nil
}

// ExistsActiveByDriver reports whether the driver holds an active assignment.
func (r *AssignmentRepo) ExistsActiveByDriver(ctx context.Context, driverID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM vehicle_assignments WHERE driver_id=$1 AND active)`, driverID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists active assignment for driver %d: %w", driverID, classify(err))
	}
	return exists, nil
}

// ExistsActiveByVehicle reports whether the vehicle is actively assigned.
func (r *AssignmentRepo) ExistsActiveByVehicle(ctx context.Context, vehicleID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM vehicle_assignments WHERE vehicle_id=$1 AND active)`, vehicleID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists active assignment for vehicle %d: %w", vehicleID, classify(err))
	}
	return exists, nil
}

// Insert persists a new active assignment. The partial unique indexes turn
// an interleaved double-assign into a Conflict here, which is the
// authoritative race arbiter.
func (r *AssignmentRepo) Insert(ctx context.Context, a *domain.Assignment) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO vehicle_assignments (driver_id, vehicle_id, assigned_by, active, assigned_at)
        VALUES ($1, $2, $3, true, $4)
        RETURNING id
    `, a.DriverID, a.VehicleID, a.AssignedBy, a.AssignedAt).Scan(&a.ID)
	if err != nil {
		if IsDuplicate(err) {
			return apperr.WithMessage(apperr.Conflict, "assignment already exists")
		}
		return fmt.Errorf("insert assignment: %w", classify(err))
	}
	a.Active = true
	return nil
}

// Page returns one page of assignments plus the total count for the filter.
// DriverID takes precedence over VehicleID over ActiveOnly, mirroring the
// read API.
func (r *AssignmentRepo) Page(ctx context.Context, f domain.AssignmentFilter, req domain.PageRequest) ([]domain.Assignment, int64, error) {
	where := ``
	args := make([]any, 0, 3)

	switch {
	case f.DriverID != nil:
		args = append(args, *f.DriverID)
		where = ` WHERE driver_id = $1`
	case f.VehicleID != nil:
		args = append(args, *f.VehicleID)
		where = ` WHERE vehicle_id = $1`
	case f.ActiveOnly:
		where = ` WHERE active`
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vehicle_assignments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", classify(err))
	}

	args = append(args, req.Size, req.Offset())
	q := fmt.Sprintf(`SELECT `+assignmentColumns+` FROM vehicle_assignments`+where+
		` ORDER BY id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", classify(err))
	}
	defer rows.Close()

	out := make([]domain.Assignment, 0, req.Size)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, 0, classify(err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", classify(err))
	}
	return out, total, nil
}

// WithTx opens a transaction and executes fn within it.
func (r *AssignmentRepo) WithTx(ctx context.Context, fn func(tx assignmenttx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", classify(err))
	}

	defer func() {
		if p := recover(); p != nil {
			err = tx.Rollback(ctx)
			if err != nil {
				panic(err)
			}
			panic(p)
		}
	}()

	wrapped := &TxRepo{tx: tx}

	if err := fn(wrapped); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", classify(err))
	}
	return nil
}

// TxRepo is the in-transaction view of assignment storage.
type TxRepo struct {
	tx pgx.Tx
}

// FindActiveByDriverForUpdate locks and returns the driver's active
// assignment, or (nil, nil) when there is none.
func (r *TxRepo) FindActiveByDriverForUpdate(ctx context.Context, driverID int64) (*domain.Assignment, error) {
	a, err := scanAssignment(r.tx.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM vehicle_assignments
         WHERE driver_id=$1 AND active
         FOR UPDATE`, driverID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active assignment for driver %d: %w", driverID, classify(err))
	}
	return a, nil
}

// Deactivate ends an assignment and returns the updated row. History is
// append-only: rows are never deleted, only flipped inactive.
func (r *TxRepo) Deactivate(ctx context.Context, id int64, at time.Time) (*domain.Assignment, error) {
	a, err := scanAssignment(r.tx.QueryRow(ctx, `
        UPDATE vehicle_assignments
        SET active = false, unassigned_at = $2
        WHERE id = $1 AND active
        RETURNING `+assignmentColumns, id, at))
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("assignment %d not active: %w", id, apperr.Conflict)
		}
		return nil, fmt.Errorf("deactivate assignment %d: %w", id, classify(err))
	}
	return a, nil
}

var _ assignmenttx.Repository = (*TxRepo)(nil)
var _ assignmenttx.Runner = (*AssignmentRepo)(nil)
