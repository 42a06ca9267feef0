package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"service-fleet/internal/apperr"
	"service-fleet/internal/domain"
)

// VehicleRepo represents vehicle repository.
type VehicleRepo struct{ db *pgxpool.Pool }

// NewVehicleRepo creates a new VehicleRepo.
func NewVehicleRepo(db *pgxpool.Pool) *VehicleRepo { return &VehicleRepo{db: db} }

const vehicleColumns = `id, registration_number, make, model, year, active, created_at, updated_at`

func scanVehicle(row interface{ Scan(...any) error }) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := row.Scan(&v.ID, &v.RegistrationNumber, &v.Make, &v.Model, &v.Year,
		&v.Active, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Get returns a vehicle by id, or (nil, nil) when absent.
func (r *VehicleRepo) Get(ctx context.Context, id int64) (*domain.Vehicle, error) {
	v, err := scanVehicle(r.db.QueryRow(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id=$1`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vehicle %d: %w", id, classify(err))
	}
	return v, nil
}

// Page returns one page of vehicles plus the total row count for the filter.
func (r *VehicleRepo) Page(ctx context.Context, f domain.VehicleFilter, req domain.PageRequest) ([]domain.Vehicle, int64, error) {
	where := ` WHERE 1=1`
	args := make([]any, 0, 3)

	if f.ActiveOnly {
		where += ` AND active`
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where += fmt.Sprintf(` AND (registration_number ILIKE $%d OR make ILIKE $%d OR model ILIKE $%d)`, n, n, n)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vehicles`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", classify(err))
	}

	args = append(args, req.Size, req.Offset())
	q := fmt.Sprintf(`SELECT `+vehicleColumns+` FROM vehicles`+where+` ORDER BY id LIMIT $%d OFFSET $%d`,
		len(args)-1, len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", classify(err))
	}
	defer rows.Close()

	out := make([]domain.Vehicle, 0, req.Size)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, classify(err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", classify(err))
	}
	return out, total, nil
}

// Create persists a new vehicle and returns its generated id.
func (r *VehicleRepo) Create(ctx context.Context, v *domain.Vehicle) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
        INSERT INTO vehicles(registration_number, make, model, year, active)
        VALUES($1, $2, $3, $4, $5)
        RETURNING id
    `, v.RegistrationNumber, v.Make, v.Model, v.Year, v.Active).Scan(&id)
	if err != nil {
		if IsDuplicate(err) {
			return 0, apperr.WithMessage(apperr.Conflict, "registration number already exists")
		}
		return 0, fmt.Errorf("create vehicle: %w", classify(err))
	}
	return id, nil
}

// UpdatePartial applies a partial update and returns true if a row was affected.
func (r *VehicleRepo) UpdatePartial(ctx context.Context, u domain.PartialVehicleUpdate) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE vehicles
        SET
            registration_number = COALESCE($2, registration_number),
            make       = COALESCE($3, make),
            model      = COALESCE($4, model),
            year       = COALESCE($5, year),
            active     = COALESCE($6, active),
            updated_at = now()
        WHERE id = $1
    `, u.ID, u.RegistrationNumber, u.Make, u.Model, u.Year, u.Active)
	if err != nil {
		if IsDuplicate(err) {
			return false, apperr.WithMessage(apperr.Conflict, "registration number already exists")
		}
		return false, fmt.Errorf("update vehicle %d: %w", u.ID, classify(err))
	}
	return ct.RowsAffected() > 0, nil
}
