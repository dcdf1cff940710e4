package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	expiresAt time.Time
	value     []byte
}

type memoryLock struct {
	done      chan struct{}
	expiresAt time.Time
}

// Memory is an in-process Store and Locker. Locks are only shared within
// the process.
type Memory struct {
	// MaxItems caps the number of stored entries; zero means unbounded.
	MaxItems int

	now func() time.Time

	mu    sync.Mutex
	items map[string]memoryItem
	locks map[string]*memoryLock
}

func NewMemory() *Memory {
	return &Memory{
		now:   time.Now,
		items: map[string]memoryItem{},
		locks: map[string]*memoryLock{},
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(it.expiresAt) {
		delete(m.items, key)
		return nil, false, nil
	}
	return it.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.items[key] = memoryItem{expiresAt: now.Add(ttl), value: append([]byte(nil), value...)}

	if m.MaxItems > 0 && len(m.items) > m.MaxItems {
		// expired first, then arbitrary
		for k, v := range m.items {
			if !now.Before(v.expiresAt) {
				delete(m.items, k)
			}
		}
		for k := range m.items {
			if len(m.items) <= m.MaxItems {
				break
			}
			if k != key {
				delete(m.items, k)
			}
		}
	}
	return nil
}

// Lock blocks until name is free, its lease runs out or ctx is done.
func (m *Memory) Lock(ctx context.Context, name string, lease time.Duration) (func(context.Context) error, error) {
	for {
		m.mu.Lock()
		held, ok := m.locks[name]
		if ok && !m.now().Before(held.expiresAt) {
			// lease expired; take it over
			delete(m.locks, name)
			close(held.done)
			ok = false
		}
		if !ok {
			l := &memoryLock{done: make(chan struct{}), expiresAt: m.now().Add(lease)}
			m.locks[name] = l
			m.mu.Unlock()
			return m.releaser(name, l), nil
		}
		wait := held.expiresAt.Sub(m.now())
		m.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-held.done:
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
		timer.Stop()
	}
}

func (m *Memory) releaser(name string, l *memoryLock) func(context.Context) error {
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.locks[name] == l {
				delete(m.locks, name)
				close(l.done)
			}
		})
		return nil
	}
}
