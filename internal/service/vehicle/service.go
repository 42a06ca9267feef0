// Package vehicle orchestrates vehicle records over the repository and the
// coherence layer.
package vehicle

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

// Service - vehicle record service.
type Service struct {
	repo  vehicleRepository
	cache *cache.Cache

	ttl              time.Duration
	operationTimeout time.Duration
	logger           logx.Logger
}

// NewService creates a vehicle service.
func NewService(repo vehicleRepository, c *cache.Cache, opts Options) *Service {
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
		cache:            c,
		ttl:              opts.TTL,
		operationTimeout: opts.OperationTimeout,
		logger:           opts.Logger,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Get returns a vehicle by id, read-through cached.
func (s *Service) Get(ctx context.Context, id int64) (domain.Vehicle, error) {
	if id <= 0 {
		return domain.Vehicle{}, apperr.WithMessage(apperr.Invalid, "vehicle id must be positive")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	v, ok, err := cache.ReadThrough(ctx, s.cache, cache.FamilyVehicleByID, cache.Key(id), s.ttl,
		func(ctx context.Context) (domain.Vehicle, bool, error) {
			v, err := s.repo.Get(ctx, id)
			if err != nil {
				return domain.Vehicle{}, false, err
			}
			if v == nil {
				return domain.Vehicle{}, false, nil
			}
			return *v, true, nil
		})
	if err != nil {
		return domain.Vehicle{}, err
	}
	if !ok {
		return domain.Vehicle{}, apperr.WithMessage(apperr.NotFound, "vehicle not found")
	}
	return v, nil
}

// List returns one page of vehicles for the filter, read-through cached.
func (s *Service) List(ctx context.Context, f domain.VehicleFilter, req domain.PageRequest) (domain.Page[domain.Vehicle], error) {
	req = req.Normalize()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	key := cache.Key("page", req.Page, "size", req.Size, "active", f.ActiveOnly, "q", f.Search)

	page, _, err := cache.ReadThrough(ctx, s.cache, cache.FamilyVehicles, key, s.ttl,
		func(ctx context.Context) (domain.Page[domain.Vehicle], bool, error) {
			items, total, err := s.repo.Page(ctx, f, req)
			if err != nil {
				return domain.Page[domain.Vehicle]{}, false, err
			}
			return domain.NewPage(items, req, total), true, nil
		})
	return page, err
}

// Create registers a new vehicle. New vehicles start active.
func (s *Service) Create(ctx context.Context, v domain.Vehicle) (int64, error) {
	v.RegistrationNumber = strings.TrimSpace(v.RegistrationNumber)
	if v.RegistrationNumber == "" {
		return 0, apperr.WithMessage(apperr.Invalid, "registration number must not be empty")
	}
	v.Active = true

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id, err := s.repo.Create(ctx, &v)
	if err != nil {
		return 0, err
	}

	s.invalidate(ctx, cache.FamilyVehicles)

	s.logger.Info("vehicle created",
		logx.Int64("vehicle_id", id),
		logx.String("registration_number", v.RegistrationNumber),
	)
	return id, nil
}

// Update applies a partial update, including activation flips.
func (s *Service) Update(ctx context.Context, u domain.PartialVehicleUpdate) error {
	if u.ID <= 0 {
		return apperr.WithMessage(apperr.Invalid, "vehicle id must be positive")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ok, err := s.repo.UpdatePartial(ctx, u)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.WithMessage(apperr.NotFound, "vehicle not found")
	}

	s.invalidate(ctx, cache.FamilyVehicles)
	s.invalidate(ctx, cache.FamilyVehicleByID, cache.Key(u.ID))
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
