package kv

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
	v, err := m.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)

	require.NoError(t, m.Delete(ctx, "a"))
	_, err = m.Get(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_TTLExpiry(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	ctx := context.Background()
	m := NewMemory().WithClock(clock)

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 10*time.Second))

	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	mu.Lock()
	now = now.Add(11 * time.Second)
	mu.Unlock()

	_, err = m.Get(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 0, m.Len())
}

func TestMemory_Update_AtomicUnderConcurrency(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	const workers = 32
	const perWorker = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := m.Update(ctx, "counter", 0, func(current []byte) ([]byte, error) {
					n := 0
					if current != nil {
						var err error
						n, err = strconv.Atoi(string(current))
						if err != nil {
							return nil, err
						}
					}
					return []byte(strconv.Itoa(n + 1)), nil
				})
				if err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	v, err := m.Get(ctx, "counter")
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(workers*perWorker), string(v))
}

func TestMemory_Update_ErrorAborts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	boom := errors.New("boom")

	_, err := m.Update(ctx, "k", 0, func([]byte) ([]byte, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	_, err = m.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound, "failed update must not write")
}

func TestMemory_DeletePrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "cache:drivers:p1", []byte("a"), 0))
	require.NoError(t, m.Set(ctx, "cache:drivers:p2", []byte("b"), 0))
	require.NoError(t, m.Set(ctx, "cache:vehicles:p1", []byte("c"), 0))

	require.NoError(t, m.DeletePrefix(ctx, "cache:drivers:"))

	_, err := m.Get(ctx, "cache:drivers:p1")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, "cache:vehicles:p1")
	require.NoError(t, err)
}
