package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMemory() (*Memory, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 19, 10, 0, 0, 0, time.UTC)}
	m := NewMemory()
	m.now = clock.Now
	return m, clock
}

func TestMemory_GetSet_TTL(t *testing.T) {
	t.Parallel()

	m, clock := newTestMemory()
	ctx := t.Context()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []byte("v1"), time.Minute))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v1"), v)

	// replaced wholesale
	require.NoError(t, m.Set(ctx, "k", []byte("v2"), time.Minute))
	v, _, _ = m.Get(ctx, "k")
	require.Equal(t, []byte("v2"), v)

	clock.Advance(time.Minute)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemory_MaxItems(t *testing.T) {
	t.Parallel()

	m, clock := newTestMemory()
	m.MaxItems = 2
	ctx := t.Context()

	require.NoError(t, m.Set(ctx, "old", []byte("x"), time.Second))
	clock.Advance(2 * time.Second)
	require.NoError(t, m.Set(ctx, "a", []byte("a"), time.Minute))
	require.NoError(t, m.Set(ctx, "b", []byte("b"), time.Minute))

	// the expired entry goes first
	_, ok, _ := m.Get(ctx, "a")
	require.True(t, ok)
	_, ok, _ = m.Get(ctx, "b")
	require.True(t, ok)

	require.NoError(t, m.Set(ctx, "c", []byte("c"), time.Minute))
	require.LessOrEqual(t, len(m.items), 2)
	_, ok, _ = m.Get(ctx, "c")
	require.True(t, ok)
}

func TestMemory_Lock_Exclusive(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := t.Context()

	release, err := m.Lock(ctx, LockName, time.Minute)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r, err := m.Lock(ctx, LockName, time.Minute)
		if err == nil {
			close(acquired)
			_ = r(ctx)
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second holder got the lock while it was held")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, release(ctx))
	// releasing twice is harmless
	require.NoError(t, release(ctx))

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock was not handed over after release")
	}
}

func TestMemory_Lock_OtherNamesIndependent(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := t.Context()

	_, err := m.Lock(ctx, "a", time.Minute)
	require.NoError(t, err)

	ctx2, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	_, err = m.Lock(ctx2, "b", time.Minute)
	require.NoError(t, err)
}

func TestMemory_Lock_ContextCancelled(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	_, err := m.Lock(t.Context(), LockName, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, LockName, time.Minute)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemory_Lock_LeaseExpires(t *testing.T) {
	t.Parallel()

	m, clock := newTestMemory()
	ctx := t.Context()

	stale, err := m.Lock(ctx, LockName, time.Second)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	fresh, err := m.Lock(ctx, LockName, time.Second)
	require.NoError(t, err)

	// the expired holder must not free the new holder's lock
	require.NoError(t, stale(ctx))
	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = m.Lock(waitCtx, LockName, time.Second)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, fresh(ctx))
	_, err = m.Lock(ctx, LockName, time.Second)
	require.NoError(t, err)
}
