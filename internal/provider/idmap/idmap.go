package idmap

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"anycoin/internal/provider"
	"anycoin/internal/symbol"
)

// Loader fetches a provider's full symbol -> id mapping.
// Symbols the provider does not list are simply absent.
type Loader func(ctx context.Context) (map[symbol.Symbol]string, error)

// snapshot is never mutated after publication.
type snapshot struct {
	ids       map[symbol.Symbol]string
	symbols   map[string]symbol.Symbol
	expiresAt time.Time
}

// Table is a lazily populated symbol <-> provider id mapping for one
// provider and one role. It is safe for concurrent use; concurrent first
// callers share a single load, and callers waiting on it give up when
// their own context is done.
type Table struct {
	provider string
	role     provider.Role
	load     Loader
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu      sync.Mutex
	loading chan struct{} // closed when the in-flight load ends; guarded by mu
	snap    atomic.Pointer[snapshot]
}

type Option func(*Table)

// WithTTL bounds how long a loaded mapping is reused. Zero keeps it for the
// life of the process.
func WithTTL(ttl time.Duration) Option {
	return func(t *Table) { t.ttl = ttl }
}

func WithLogger(l *zap.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Table) { t.now = now }
}

func New(providerName string, role provider.Role, load Loader, opts ...Option) *Table {
	t := &Table{
		provider: providerName,
		role:     role,
		load:     load,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Resolve returns the provider id for s.
func (t *Table) Resolve(ctx context.Context, s symbol.Symbol) (string, error) {
	snap, err := t.current(ctx)
	if err != nil {
		return "", err
	}
	id, ok := snap.ids[s]
	if !ok {
		return "", &provider.NotSupportedError{Provider: t.provider, Role: t.role, Symbol: s}
	}
	return id, nil
}

// ReverseResolve returns the symbol registered under the provider id.
func (t *Table) ReverseResolve(ctx context.Context, id string) (symbol.Symbol, error) {
	snap, err := t.current(ctx)
	if err != nil {
		return 0, err
	}
	s, ok := snap.symbols[id]
	if !ok {
		return 0, &provider.NotSupportedError{Provider: t.provider, Role: t.role, ID: id}
	}
	return s, nil
}

// ResolveAll resolves every symbol, failing on the first unsupported one.
func (t *Table) ResolveAll(ctx context.Context, ss []symbol.Symbol) ([]string, error) {
	ids := make([]string, 0, len(ss))
	for _, s := range ss {
		id, err := t.Resolve(ctx, s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Entries returns a copy of the current mapping.
func (t *Table) Entries(ctx context.Context) (map[symbol.Symbol]string, error) {
	snap, err := t.current(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[symbol.Symbol]string, len(snap.ids))
	for s, id := range snap.ids {
		out[s] = id
	}
	return out, nil
}

// Invalidate drops the loaded mapping; the next lookup reloads it.
func (t *Table) Invalidate() { t.snap.Store(nil) }

func (t *Table) current(ctx context.Context) (*snapshot, error) {
	for {
		if s := t.snap.Load(); t.fresh(s) {
			return s, nil
		}

		t.mu.Lock()
		// another caller may have loaded while we took the lock
		if s := t.snap.Load(); t.fresh(s) {
			t.mu.Unlock()
			return s, nil
		}
		if done := t.loading; done != nil {
			t.mu.Unlock()
			select {
			case <-done:
				// loaded, or failed and ours to retry
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		done := make(chan struct{})
		t.loading = done
		t.mu.Unlock()

		return t.loadSnapshot(ctx, done)
	}
}

// loadSnapshot runs the loader and publishes its result. done is closed on
// every exit so waiters never hang on a failed or panicking load.
func (t *Table) loadSnapshot(ctx context.Context, done chan struct{}) (*snapshot, error) {
	defer func() {
		t.mu.Lock()
		t.loading = nil
		t.mu.Unlock()
		close(done)
	}()

	ids, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	s := build(ids)
	if t.ttl > 0 {
		s.expiresAt = t.now().Add(t.ttl)
	}
	t.snap.Store(s)
	t.logger.Debug("identifier mapping loaded",
		zap.String("provider", t.provider),
		zap.Stringer("role", t.role),
		zap.Int("entries", len(s.ids)),
	)
	return s, nil
}

func (t *Table) fresh(s *snapshot) bool {
	if s == nil {
		return false
	}
	return s.expiresAt.IsZero() || t.now().Before(s.expiresAt)
}

// build indexes both directions. When two symbols share an id the one
// declared first in the registry owns the reverse entry.
func build(ids map[symbol.Symbol]string) *snapshot {
	keys := make([]symbol.Symbol, 0, len(ids))
	for s := range ids {
		if s.Valid() {
			keys = append(keys, s)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	s := &snapshot{
		ids:     make(map[symbol.Symbol]string, len(keys)),
		symbols: make(map[string]symbol.Symbol, len(keys)),
	}
	for _, k := range keys {
		id := ids[k]
		if id == "" {
			continue
		}
		s.ids[k] = id
		if _, taken := s.symbols[id]; !taken {
			s.symbols[id] = k
		}
	}
	return s
}
