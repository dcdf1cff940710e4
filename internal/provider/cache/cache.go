package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"anycoin/internal/provider"
	"anycoin/internal/quote"
	"anycoin/internal/symbol"
)

// LockName serializes every cache-miss fetch, whatever the key.
const LockName = "anycoin:lock:get_coin_quotes"

const (
	keyPrefix      = "anycoin:quotes"
	defaultTTL     = time.Minute
	defaultLease   = 30 * time.Second
	releaseTimeout = 5 * time.Second
)

// Store keeps encoded quotes under a key for a while.
type Store interface {
	// Get reports ok=false when the key is absent or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Locker hands out named locks. The lease bounds how long a crashed holder
// can keep others waiting.
type Locker interface {
	Lock(ctx context.Context, name string, lease time.Duration) (release func(context.Context) error, err error)
}

// Provider memoizes quotes of the wrapped provider. Fetches on a miss run
// one at a time under LockName; hits never touch the lock.
type Provider struct {
	next   provider.Provider
	store  Store
	locker Locker
	ttl    time.Duration
	lease  time.Duration
	logger *zap.Logger
}

type Option func(*Provider)

// WithTTL sets how long a fetched result is served from the cache.
func WithTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithLease sets the lease of the fetch lock.
func WithLease(lease time.Duration) Option {
	return func(p *Provider) {
		if lease > 0 {
			p.lease = lease
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

func New(next provider.Provider, store Store, locker Locker, opts ...Option) *Provider {
	p := &Provider{
		next:   next,
		store:  store,
		locker: locker,
		ttl:    defaultTTL,
		lease:  defaultLease,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return p.next.Name() }

// Key is the cache key of a request: provider name plus the sorted,
// deduplicated coin and quote lists.
func Key(providerName string, coins, quotes []symbol.Symbol) string {
	return strings.Join([]string{keyPrefix, providerName, joinSorted(coins), joinSorted(quotes)}, ":")
}

func joinSorted(ss []symbol.Symbol) string {
	seen := make(map[string]struct{}, len(ss))
	values := make([]string, 0, len(ss))
	for _, s := range ss {
		v := s.Value()
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return strings.Join(values, ",")
}

func (p *Provider) GetCoinQuotes(ctx context.Context, coins, quotes []symbol.Symbol) (q *quote.CoinQuotes, err error) {
	key := Key(p.next.Name(), coins, quotes)
	if q, ok := p.lookup(ctx, key); ok {
		return q, nil
	}

	release, err := p.locker.Lock(ctx, LockName, p.lease)
	if err != nil {
		return nil, fmt.Errorf("acquiring %s: %w", LockName, err)
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if rerr := release(rctx); rerr != nil {
			p.logger.Warn("releasing cache lock failed", zap.String("lock", LockName), zap.Error(rerr))
		}
	}()

	// a previous holder may have filled the entry while we waited
	if q, ok := p.lookup(ctx, key); ok {
		return q, nil
	}

	q, err = p.next.GetCoinQuotes(ctx, coins, quotes)
	if err != nil {
		return nil, err
	}

	b, err := encode(q)
	if err != nil {
		p.logger.Warn("encoding cache entry failed", zap.String("key", key), zap.Error(err))
		return q, nil
	}
	if err := p.store.Set(ctx, key, b, p.ttl); err != nil {
		p.logger.Warn("writing cache entry failed", zap.String("key", key), zap.Error(err))
		return q, nil
	}
	p.logger.Debug("cache entry stored", zap.String("key", key), zap.Duration("ttl", p.ttl))
	return q, nil
}

// lookup treats every store or decode failure as a miss.
func (p *Provider) lookup(ctx context.Context, key string) (*quote.CoinQuotes, bool) {
	b, ok, err := p.store.Get(ctx, key)
	if err != nil {
		p.logger.Warn("reading cache entry failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	q, err := decode(b)
	if err != nil {
		p.logger.Warn("decoding cache entry failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	p.logger.Debug("cache hit", zap.String("key", key))
	return q, true
}
