package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"service-fleet/internal/apperr"
	"service-fleet/internal/domain"
)

// DriverRepo represents driver repository.
type DriverRepo struct{ db *pgxpool.Pool }

// NewDriverRepo creates a new DriverRepo.
func NewDriverRepo(db *pgxpool.Pool) *DriverRepo { return &DriverRepo{db: db} }

const driverColumns = `id, first_name, last_name, phone, license_number, state, created_at, updated_at`

func scanDriver(row interface{ Scan(...any) error }) (*domain.Driver, error) {
	var d domain.Driver
	err := row.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Phone, &d.LicenseNumber,
		&d.State, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Get returns a driver by id. Soft-deleted drivers are excluded unless
// includeDeleted is set. A missing driver returns (nil, nil).
func (r *DriverRepo) Get(ctx context.Context, id int64, includeDeleted bool) (*domain.Driver, error) {
	q := `SELECT ` + driverColumns + ` FROM drivers WHERE id=$1`
	if !includeDeleted {
		q += ` AND state <> 'DELETED'`
	}
	d, err := scanDriver(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get driver %d: %w", id, classify(err))
	}
	return d, nil
}

// Page returns one page of drivers plus the total row count for the filter.
func (r *DriverRepo) Page(ctx context.Context, f domain.DriverFilter, req domain.PageRequest) ([]domain.Driver, int64, error) {
	where := ` WHERE 1=1`
	args := make([]any, 0, 4)

	if !f.IncludeDeleted {
		where += ` AND state <> 'DELETED'`
	}
	if f.State != nil {
		args = append(args, string(*f.State))
		where += fmt.Sprintf(` AND state = $%d`, len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR license_number ILIKE $%d)`, n, n, n)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM drivers`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count drivers: %w", classify(err))
	}

	args = append(args, req.Size, req.Offset())
	q := fmt.Sprintf(`SELECT `+driverColumns+` FROM drivers`+where+` ORDER BY id LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list drivers: %w", classify(err))
	}
	defer rows.Close()

	out := make([]domain.Driver, 0, req.Size)
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, 0, classify(err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list drivers: %w", classify(err))
	}
	return out, total, nil
}

// Create persists a new driver and returns its generated id.
func (r *DriverRepo) Create(ctx context.Context, d *domain.Driver) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
        INSERT INTO drivers(first_name, last_name, phone, license_number, state)
        VALUES($1, $2, $3, $4, $5)
        RETURNING id
    `, d.FirstName, d.LastName, d.Phone, d.LicenseNumber, string(d.State)).Scan(&id)
	if err != nil {
		if IsDuplicate(err) {
			return 0, apperr.WithMessage(apperr.Conflict, "license number already exists")
		}
		return 0, fmt.Errorf("create driver: %w", classify(err))
	}
	return id, nil
}

// UpdatePartial applies a partial update and returns true if a live row was affected.
func (r *DriverRepo) UpdatePartial(ctx context.Context, u domain.PartialDriverUpdate) (bool, error) {
	var state *string
	if u.State != nil {
		s := string(*u.State)
		state = &s
	}
	ct, err := r.db.Exec(ctx, `
        UPDATE drivers
        SET
            first_name = COALESCE($2, first_name),
            last_name  = COALESCE($3, last_name),
            phone      = COALESCE($4, phone),
            state      = COALESCE($5, state),
            updated_at = now()
        WHERE id = $1 AND state <> 'DELETED'
    `, u.ID, u.FirstName, u.LastName, u.Phone, state)
	if err != nil {
		return false, fmt.Errorf("update driver %d: %w", u.ID, classify(err))
	}
	return ct.RowsAffected() > 0, nil
}

// SoftDelete marks a driver DELETED and returns true if a live row was affected.
func (r *DriverRepo) SoftDelete(ctx context.Context, id int64) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE drivers
        SET state = 'DELETED', updated_at = now()
        WHERE id = $1 AND state <> 'DELETED'
    `, id)
	if err != nil {
		return false, fmt.Errorf("soft delete driver %d: %w", id, classify(err))
	}
	return ct.RowsAffected() > 0, nil
}
