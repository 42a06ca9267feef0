// Package assignment keeps driver-vehicle assignments consistent: at most
// one active vehicle per driver and one active driver per vehicle at any
// instant, across service instances. Preconditions are checked in a fixed
// order before any write, and the database's unique-active constraint is
// the final arbiter for races the checks cannot see.
package assignment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"service-fleet/internal/apperr"
	"service-fleet/internal/cache"
	"service-fleet/internal/domain"
	"service-fleet/internal/logx"
	"service-fleet/internal/ports/assignmenttx"
	"service-fleet/internal/transport/kafka"
)

// Options carries the tuning knobs of the engine.
type Options struct {
	ListTTL          time.Duration
	OperationTimeout time.Duration
	Logger           logx.Logger
	Conflicts        prometheus.Counter
}

// Service - the assignment consistency engine.
type Service struct {
	drivers   driverGetter
	vehicles  vehicleGetter
	users     userGetter
	repo      assignmentRepository
	cache     *cache.Cache
	publisher eventPublisher

	listTTL          time.Duration
	operationTimeout time.Duration
	logger           logx.Logger
	conflicts        prometheus.Counter
	now              func() time.Time
}

// NewService creates the engine. publisher may be nil when Kafka is not
// configured.
func NewService(
	drivers driverGetter,
	vehicles vehicleGetter,
	users userGetter,
	repo assignmentRepository,
	c *cache.Cache,
	publisher eventPublisher,
	opts Options,
) *Service {
	if opts.ListTTL <= 0 {
		opts.ListTTL = 2 * time.Minute
	}
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = 3 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logx.Nop()
	}
	return &Service{
		drivers:          drivers,
		vehicles:         vehicles,
		users:            users,
		repo:             repo,
		cache:            c,
		publisher:        publisher,
		listTTL:          opts.ListTTL,
		operationTimeout: opts.OperationTimeout,
		logger:           opts.Logger,
		conflicts:        opts.Conflicts,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Assign binds a vehicle to a driver on behalf of actor. Preconditions run
// in a fixed order and each failure is a distinct error; nothing is written
// until all of them pass. A concurrent double-assign that slips past the
// existence checks loses at insert time with a Conflict.
func (s *Service) Assign(ctx context.Context, driverID, vehicleID int64, actor string) (domain.Assignment, error) {
	actor = strings.TrimSpace(actor)
	switch {
	case driverID <= 0:
		return domain.Assignment{}, apperr.WithMessage(apperr.Invalid, "driver id must be positive")
	case vehicleID <= 0:
		return domain.Assignment{}, apperr.WithMessage(apperr.Invalid, "vehicle id must be positive")
	case actor == "":
		return domain.Assignment{}, apperr.WithMessage(apperr.Invalid, "actor must not be empty")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, err := s.drivers.Get(ctx, driverID, false)
	if err != nil {
		return domain.Assignment{}, err
	}
	if d == nil {
		return domain.Assignment{}, apperr.WithMessage(apperr.NotFound, "driver not found")
	}
	if !d.State.CanReceiveAssignment() {
		return domain.Assignment{}, s.conflict("driver must be active")
	}

	v, err := s.vehicles.Get(ctx, vehicleID)
	if err != nil {
		return domain.Assignment{}, err
	}
	if v == nil {
		return domain.Assignment{}, apperr.WithMessage(apperr.NotFound, "vehicle not found")
	}
	if !v.Active {
		return domain.Assignment{}, s.conflict("vehicle not active")
	}

	taken, err := s.repo.ExistsActiveByDriver(ctx, driverID)
	if err != nil {
		return domain.Assignment{}, err
	}
	if taken {
		return domain.Assignment{}, s.conflict("driver already assigned")
	}

	taken, err = s.repo.ExistsActiveByVehicle(ctx, vehicleID)
	if err != nil {
		return domain.Assignment{}, err
	}
	if taken {
		return domain.Assignment{}, s.conflict("vehicle already assigned")
	}

	u, err := s.users.GetByUsername(ctx, actor)
	if err != nil {
		return domain.Assignment{}, err
	}
	if u == nil {
		return domain.Assignment{}, apperr.WithMessage(apperr.NotFound, "assigning user not found")
	}

	a := domain.Assignment{
		DriverID:   driverID,
		VehicleID:  vehicleID,
		AssignedBy: actor,
		AssignedAt: s.now(),
	}
	if err := s.repo.Insert(ctx, &a); err != nil {
		if errors.Is(err, apperr.Conflict) {
			s.countConflict()
		}
		return domain.Assignment{}, err
	}

	s.invalidate(ctx, cache.FamilyAssignments)
	s.invalidate(ctx, cache.FamilyVehicles)
	s.invalidate(ctx, cache.FamilyVehicleByID, cache.Key(vehicleID))
	s.invalidate(ctx, cache.FamilyDriverByID, cache.Key(driverID))

	s.publish(kafka.FromAssignment(kafka.EventAssigned, a, a.AssignedAt))

	s.logger.Info("vehicle assigned",
		logx.String("event", "vehicle_assigned"),
		logx.Int64("assignment_id", a.ID),
		logx.Int64("driver_id", driverID),
		logx.Int64("vehicle_id", vehicleID),
		logx.String("assigned_by", actor),
	)
	return a, nil
}

// Unassign ends the driver's active assignment. The row is locked, flipped
// inactive and stamped in one transaction; history rows are never deleted.
func (s *Service) Unassign(ctx context.Context, driverID int64) (domain.Assignment, error) {
	if driverID <= 0 {
		return domain.Assignment{}, apperr.WithMessage(apperr.Invalid, "driver id must be positive")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var ended *domain.Assignment
	err := s.repo.WithTx(ctx, func(tx assignmenttx.Repository) error {
		cur, err := tx.FindActiveByDriverForUpdate(ctx, driverID)
		if err != nil {
			return err
		}
		if cur == nil {
			return apperr.WithMessage(apperr.NotFound, "no active assignment for driver")
		}

		ended, err = tx.Deactivate(ctx, cur.ID, s.now())
		return err
	})
	if err != nil {
		return domain.Assignment{}, err
	}

	s.invalidate(ctx, cache.FamilyAssignments)
	s.invalidate(ctx, cache.FamilyVehicles)
	s.invalidate(ctx, cache.FamilyVehicleByID)
	s.invalidate(ctx, cache.FamilyDriverByID, cache.Key(driverID))

	at := s.now()
	if ended.UnassignedAt != nil {
		at = *ended.UnassignedAt
	}
	s.publish(kafka.FromAssignment(kafka.EventUnassigned, *ended, at))

	s.logger.Info("vehicle unassigned",
		logx.String("event", "vehicle_unassigned"),
		logx.Int64("assignment_id", ended.ID),
		logx.Int64("driver_id", ended.DriverID),
		logx.Int64("vehicle_id", ended.VehicleID),
	)
	return *ended, nil
}

// List returns one page of assignment history, read-through cached.
func (s *Service) List(ctx context.Context, f domain.AssignmentFilter, req domain.PageRequest) (domain.Page[domain.Assignment], error) {
	req = req.Normalize()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key := cache.Key("page", req.Page, "size", req.Size,
		"active", f.ActiveOnly, "driver", f.DriverID, "vehicle", f.VehicleID)

	page, _, err := cache.ReadThrough(ctx, s.cache, cache.FamilyAssignments, key, s.listTTL,
		func(ctx context.Context) (domain.Page[domain.Assignment], bool, error) {
			items, total, err := s.repo.Page(ctx, f, req)
			if err != nil {
				return domain.Page[domain.Assignment]{}, false, err
			}
			return domain.NewPage(items, req, total), true, nil
		})
	return page, err
}

func (s *Service) conflict(msg string) error {
	s.countConflict()
	return apperr.WithMessage(apperr.Conflict, msg)
}

func (s *Service) countConflict() {
	if s.conflicts != nil {
		s.conflicts.Inc()
	}
}

func (s *Service) invalidate(ctx context.Context, family string, keys ...string) {
	if err := s.cache.Invalidate(ctx, family, keys...); err != nil {
		s.logger.Warn("cache invalidation failed",
			logx.String("family", family),
			logx.Any("err", err),
		)
	}
}

// publish is best effort: the assignment is already committed and a broker
// failure must not undo it.
func (s *Service) publish(ev kafka.EventDTO) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ev); err != nil {
		s.logger.Error("assignment event publish failed",
			logx.String("type", ev.Type),
			logx.Int64("assignment_id", ev.AssignmentID),
			logx.Any("err", err),
		)
	}
}
