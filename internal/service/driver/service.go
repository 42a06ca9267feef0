// Package driver orchestrates driver records over the repository and the
// coherence layer: reads go through the cache, writes invalidate it.
package driver

import (
	"context"
	"strings"
	"time"

	"service-fleet/internal/apperr"
	"service-fleet/internal/cache"
	"service-fleet/internal/domain"
	"service-fleet/internal/logx"
)

// Options carries the tuning knobs of the service.
type Options struct {
	TTL              time.Duration
	OperationTimeout time.Duration
	Logger           logx.Logger
}

// Service - driver record service.
type Service struct {
	repo        driverRepository
	assignments assignmentChecker
	cache       *cache.Cache

	ttl              time.Duration
	operationTimeout time.Duration
	logger           logx.Logger
}

// NewService creates a driver service.
func NewService(repo driverRepository, assignments assignmentChecker, c *cache.Cache, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = 3 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logx.Nop()
	}
	return &Service{
		repo:             repo,
		assignments:      assignments,
		cache:            c,
		ttl:              opts.TTL,
		operationTimeout: opts.OperationTimeout,
		logger:           opts.Logger,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Get returns a driver by id, read-through cached. Soft-deleted drivers are
// reported as not found.
func (s *Service) Get(ctx context.Context, id int64) (domain.Driver, error) {
	if id <= 0 {
		return domain.Driver{}, apperr.WithMessage(apperr.Invalid, "driver id must be positive")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, ok, err := cache.ReadThrough(ctx, s.cache, cache.FamilyDriverByID, cache.Key(id), s.ttl,
		func(ctx context.Context) (domain.Driver, bool, error) {
			d, err := s.repo.Get(ctx, id, false)
			if err != nil {
				return domain.Driver{}, false, err
			}
			if d == nil {
				return domain.Driver{}, false, nil
			}
			return *d, true, nil
		})
	if err != nil {
		return domain.Driver{}, err
	}
	if !ok {
		return domain.Driver{}, apperr.WithMessage(apperr.NotFound, "driver not found")
	}
	return d, nil
}

// List returns one page of drivers for the filter, read-through cached.
func (s *Service) List(ctx context.Context, f domain.DriverFilter, req domain.PageRequest) (domain.Page[domain.Driver], error) {
	req = req.Normalize()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	state := "-"
	if f.State != nil {
		state = string(*f.State)
	}
	key := cache.Key("page", req.Page, "size", req.Size,
		"state", state, "q", f.Search, "deleted", f.IncludeDeleted)

	page, _, err := cache.ReadThrough(ctx, s.cache, cache.FamilyDrivers, key, s.ttl,
		func(ctx context.Context) (domain.Page[domain.Driver], bool, error) {
			items, total, err := s.repo.Page(ctx, f, req)
			if err != nil {
				return domain.Page[domain.Driver]{}, false, err
			}
			return domain.NewPage(items, req, total), true, nil
		})
	return page, err
}

// Create registers a new driver. State defaults to ACTIVE.
func (s *Service) Create(ctx context.Context, d domain.Driver) (int64, error) {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.LicenseNumber = strings.TrimSpace(d.LicenseNumber)

	switch {
	case d.FirstName == "" || d.LastName == "":
		return 0, apperr.WithMessage(apperr.Invalid, "driver name must not be empty")
	case d.LicenseNumber == "":
		return 0, apperr.WithMessage(apperr.Invalid, "license number must not be empty")
	}
	if d.State == "" {
		d.State = domain.DriverActive
	}
	if !d.State.Valid() || d.State.Deleted() {
		return 0, apperr.WithMessage(apperr.Invalid, "unknown driver state")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id, err := s.repo.Create(ctx, &d)
	if err != nil {
		return 0, err
	}

	s.invalidate(ctx, cache.FamilyDrivers)

	s.logger.Info("driver created",
		logx.Int64("driver_id", id),
		logx.String("license_number", d.LicenseNumber),
	)
	return id, nil
}

// Update applies a partial update to a live driver.
func (s *Service) Update(ctx context.Context, u domain.PartialDriverUpdate) error {
	if u.ID <= 0 {
		return apperr.WithMessage(apperr.Invalid, "driver id must be positive")
	}
	if u.State != nil && (!u.State.Valid() || u.State.Deleted()) {
		return apperr.WithMessage(apperr.Invalid, "unknown driver state")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ok, err := s.repo.UpdatePartial(ctx, u)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.WithMessage(apperr.NotFound, "driver not found")
	}

	s.invalidate(ctx, cache.FamilyDrivers)
	s.invalidate(ctx, cache.FamilyDriverByID, cache.Key(u.ID))
	return nil
}

// Delete soft-deletes a driver. A driver holding an active assignment must
// be unassigned first.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.WithMessage(apperr.Invalid, "driver id must be positive")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	assigned, err := s.assignments.ExistsActiveByDriver(ctx, id)
	if err != nil {
		return err
	}
	if assigned {
		return apperr.WithMessage(apperr.Conflict, "driver has an active assignment")
	}

	ok, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.WithMessage(apperr.NotFound, "driver not found")
	}

	s.invalidate(ctx, cache.FamilyDrivers)
	s.invalidate(ctx, cache.FamilyDriverByID, cache.Key(id))

	s.logger.Info("driver deleted", logx.Int64("driver_id", id))
	return nil
}

func (s *Service) invalidate(ctx context.Context, family string, keys ...string) {
	if err := s.cache.Invalidate(ctx, family, keys...); err != nil {
		s.logger.Warn("cache invalidation failed",
			logx.String("family", family),
			logx.Any("err", err),
		)
	}
}
