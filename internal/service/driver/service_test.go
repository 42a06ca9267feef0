package driver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"service-fleet/internal/apperr"
	"service-fleet/internal/cache"
	"service-fleet/internal/domain"
	"service-fleet/internal/kv"
	"service-fleet/internal/logx"
	"service-fleet/internal/service/driver"
)

type stubRepo struct {
	getFn        func(ctx context.Context, id int64, includeDeleted bool) (*domain.Driver, error)
	pageFn       func(ctx context.Context, f domain.DriverFilter, req domain.PageRequest) ([]domain.Driver, int64, error)
	createFn     func(ctx context.Context, d *domain.Driver) (int64, error)
	updateFn     func(ctx context.Context, u domain.PartialDriverUpdate) (bool, error)
	softDeleteFn func(ctx context.Context, id int64) (bool, error)
}

func (s *stubRepo) Get(ctx context.Context, id int64, includeDeleted bool) (*domain.Driver, error) {
	if s.getFn == nil {
		return nil, nil
	}
	return s.getFn(ctx, id, includeDeleted)
}

func (s *stubRepo) Page(ctx context.Context, f domain.DriverFilter, req domain.PageRequest) ([]domain.Driver, int64, error) {
	if s.pageFn == nil {
		return nil, 0, nil
	}
	return s.pageFn(ctx, f, req)
}

func (s *stubRepo) Create(ctx context.Context, d *domain.Driver) (int64, error) {
	if s.createFn == nil {
		return 1, nil
	}
	return s.createFn(ctx, d)
}

func (s *stubRepo) UpdatePartial(ctx context.Context, u domain.PartialDriverUpdate) (bool, error) {
	if s.updateFn == nil {
		return true, nil
	}
	return s.updateFn(ctx, u)
}

func (s *stubRepo) SoftDelete(ctx context.Context, id int64) (bool, error) {
	if s.softDeleteFn == nil {
		return true, nil
	}
	return s.softDeleteFn(ctx, id)
}

type stubChecker struct {
	existsFn func(ctx context.Context, driverID int64) (bool, error)
}

func (s stubChecker) ExistsActiveByDriver(ctx context.Context, driverID int64) (bool, error) {
	if s.existsFn == nil {
		return false, nil
	}
	return s.existsFn(ctx, driverID)
}

func newService(repo *stubRepo, checker stubChecker) (*driver.Service, *kv.Memory) {
	mem := kv.NewMemory()
	c := cache.New(mem, logx.Nop(), nil, nil)
	return driver.NewService(repo, checker, c, driver.Options{}), mem
}

func TestService_Get_CachedAfterFirstLoad(t *testing.T) {
	t.Parallel()

	var loads int
	repo := &stubRepo{
		getFn: func(_ context.Context, id int64, includeDeleted bool) (*domain.Driver, error) {
			require.False(t, includeDeleted)
			loads++
			return &domain.Driver{ID: id, FirstName: "Ada", State: domain.DriverActive}, nil
		},
	}
	svc, _ := newService(repo, stubChecker{})

	ctx := context.Background()
	first, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "Ada", first.FirstName)

	second, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, loads)
}

func TestService_Get_MissingNotCached(t *testing.T) {
	t.Parallel()

	var loads int
	repo := &stubRepo{
		getFn: func(context.Context, int64, bool) (*domain.Driver, error) {
			loads++
			return nil, nil
		},
	}
	svc, mem := newService(repo, stubChecker{})

	ctx := context.Background()
	_, err := svc.Get(ctx, 7)
	require.ErrorIs(t, err, apperr.NotFound)

	_, err = svc.Get(ctx, 7)
	require.ErrorIs(t, err, apperr.NotFound)
	require.Equal(t, 2, loads, "absence must not be cached")
	require.Equal(t, 0, mem.Len())
}

func TestService_Get_ReflectsStateAfterUpdate(t *testing.T) {
	t.Parallel()

	state := domain.DriverActive
	repo := &stubRepo{
		getFn: func(_ context.Context, id int64, _ bool) (*domain.Driver, error) {
			return &domain.Driver{ID: id, State: state}, nil
		},
	}
	svc, _ := newService(repo, stubChecker{})
	ctx := context.Background()

	got, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, domain.DriverActive, got.State)

	// repo changes; the stale cached entry must be evicted by Update
	state = domain.DriverSuspended
	suspended := domain.DriverSuspended
	require.NoError(t, svc.Update(ctx, domain.PartialDriverUpdate{ID: 7, State: &suspended}))

	got, err = svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, domain.DriverSuspended, got.State)
}

func TestService_List_CachedPerFilter(t *testing.T) {
	t.Parallel()

	var loads int
	repo := &stubRepo{
		pageFn: func(_ context.Context, _ domain.DriverFilter, req domain.PageRequest) ([]domain.Driver, int64, error) {
			loads++
			return []domain.Driver{{ID: 1, State: domain.DriverActive}}, 1, nil
		},
	}
	svc, _ := newService(repo, stubChecker{})
	ctx := context.Background()

	_, err := svc.List(ctx, domain.DriverFilter{}, domain.PageRequest{})
	require.NoError(t, err)
	_, err = svc.List(ctx, domain.DriverFilter{}, domain.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, loads)

	active := domain.DriverActive
	_, err = svc.List(ctx, domain.DriverFilter{State: &active}, domain.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 2, loads)
}

func TestService_Create_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newService(&stubRepo{
		createFn: func(context.Context, *domain.Driver) (int64, error) {
			t.Error("create must not reach the repository on invalid input")
			return 0, nil
		},
	}, stubChecker{})
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.Driver{LastName: "Lovelace", LicenseNumber: "L-1"})
	require.ErrorIs(t, err, apperr.Invalid)

	_, err = svc.Create(ctx, domain.Driver{FirstName: "Ada", LastName: "Lovelace"})
	require.ErrorIs(t, err, apperr.Invalid)

	_, err = svc.Create(ctx, domain.Driver{
		FirstName: "Ada", LastName: "Lovelace", LicenseNumber: "L-1",
		State: domain.DriverState("UNKNOWN"),
	})
	require.ErrorIs(t, err, apperr.Invalid)

	_, err = svc.Create(ctx, domain.Driver{
		FirstName: "Ada", LastName: "Lovelace", LicenseNumber: "L-1",
		State: domain.DriverDeleted,
	})
	require.ErrorIs(t, err, apperr.Invalid)
}

func TestService_Create_DefaultsToActiveAndInvalidatesListings(t *testing.T) {
	t.Parallel()

	var created *domain.Driver
	repo := &stubRepo{
		pageFn: func(context.Context, domain.DriverFilter, domain.PageRequest) ([]domain.Driver, int64, error) {
			return nil, 0, nil
		},
		createFn: func(_ context.Context, d *domain.Driver) (int64, error) {
			created = d
			return 42, nil
		},
	}
	svc, mem := newService(repo, stubChecker{})
	ctx := context.Background()

	// warm a listing entry, then create: the listing family must be dropped
	_, err := svc.List(ctx, domain.DriverFilter{}, domain.PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, mem.Len())

	id, err := svc.Create(ctx, domain.Driver{FirstName: "Ada", LastName: "Lovelace", LicenseNumber: "L-1"})
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
	require.Equal(t, domain.DriverActive, created.State)
	require.Equal(t, 0, mem.Len())
}

func TestService_Update_NotFound(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{
		updateFn: func(context.Context, domain.PartialDriverUpdate) (bool, error) { return false, nil },
	}
	svc, _ := newService(repo, stubChecker{})

	err := svc.Update(context.Background(), domain.PartialDriverUpdate{ID: 7})
	require.ErrorIs(t, err, apperr.NotFound)
}

func TestService_Delete_RefusedWhileAssigned(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{
		softDeleteFn: func(context.Context, int64) (bool, error) {
			t.Error("soft delete must not run while an active assignment exists")
			return false, nil
		},
	}
	checker := stubChecker{existsFn: func(context.Context, int64) (bool, error) { return true, nil }}
	svc, _ := newService(repo, checker)

	err := svc.Delete(context.Background(), 7)
	require.ErrorIs(t, err, apperr.Conflict)
	require.ErrorContains(t, err, "active assignment")
}

func TestService_Delete_Success(t *testing.T) {
	t.Parallel()

	var deleted int64
	repo := &stubRepo{
		getFn: func(_ context.Context, id int64, _ bool) (*domain.Driver, error) {
			return &domain.Driver{ID: id, State: domain.DriverActive}, nil
		},
		softDeleteFn: func(_ context.Context, id int64) (bool, error) {
			deleted = id
			return true, nil
		},
	}
	svc, mem := newService(repo, stubChecker{})
	ctx := context.Background()

	_, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 1, mem.Len())

	require.NoError(t, svc.Delete(ctx, 7))
	require.Equal(t, int64(7), deleted)
	require.Equal(t, 0, mem.Len(), "by-id entry must be evicted")
}

func TestService_Delete_NotFound(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{
		softDeleteFn: func(context.Context, int64) (bool, error) { return false, nil },
	}
	svc, _ := newService(repo, stubChecker{})

	err := svc.Delete(context.Background(), 7)
	require.ErrorIs(t, err, apperr.NotFound)
}

func TestService_Get_RepoErrorPropagates(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("db down")
	repo := &stubRepo{
		getFn: func(context.Context, int64, bool) (*domain.Driver, error) { return nil, wantErr },
	}
	svc, _ := newService(repo, stubChecker{})

	_, err := svc.Get(context.Background(), 7)
	require.ErrorIs(t, err, wantErr)
}
