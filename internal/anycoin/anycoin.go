// Package anycoin assembles the configured provider chain: provider clients,
// the fallback facade and the optional result cache.
package anycoin

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"anycoin/internal/config"
	"anycoin/internal/httpx"
	"anycoin/internal/provider"
	"anycoin/internal/provider/cache"
	"anycoin/internal/provider/coingecko"
	"anycoin/internal/provider/coinmarketcap"
	"anycoin/internal/provider/fallback"
	"anycoin/internal/provider/ratelimit"
	"anycoin/internal/quote"
	"anycoin/internal/symbol"
)

// rateBurst covers a cold start: id listings plus the first quote request.
const rateBurst = 5

// Client is a provider that also exposes its identifier mappings.
type Client interface {
	provider.Provider
	provider.Resolver
	AssetIDs(ctx context.Context) (map[symbol.Symbol]string, error)
	QuoteIDs(ctx context.Context) (map[symbol.Symbol]string, error)
}

var (
	_ Client = (*coinmarketcap.Client)(nil)
	_ Client = (*coingecko.Client)(nil)
)

// App is a ready provider chain.
type App struct {
	provider provider.Provider
	chain    *fallback.Provider
	clients  map[string]Client
	closers  []func() error
}

type Option func(*options)

type options struct {
	httpClient httpx.HTTPClient
	logger     *zap.Logger
}

// WithHTTPClient replaces the transport shared by every provider client.
func WithHTTPClient(c httpx.HTTPClient) Option {
	return func(o *options) { o.httpClient = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New validates cfg and builds the chain in cfg.Providers order. The Redis
// backend is dialled here, so ctx bounds the connection attempt.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.httpClient == nil {
		o.httpClient = httpx.New(cfg.RequestTimeout())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{clients: map[string]Client{}}
	var chain []provider.Provider
	for _, name := range cfg.Providers {
		c, err := newClient(name, cfg, o)
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		if _, dup := app.clients[name]; dup {
			continue
		}
		app.clients[name] = c
		chain = append(chain, c)
	}
	app.chain = fallback.New(chain, fallback.WithLogger(o.logger))
	app.provider = app.chain

	if cfg.Cache.Enabled {
		store, locker, closer, err := newCacheBackend(ctx, cfg.Cache, o.logger)
		if err != nil {
			return nil, err
		}
		if closer != nil {
			app.closers = append(app.closers, closer)
		}
		app.provider = cache.New(app.chain, store, locker,
			cache.WithTTL(cfg.Cache.TTL()),
			cache.WithLease(cfg.Cache.LockLease()),
			cache.WithLogger(o.logger),
		)
	}

	o.logger.Info("provider chain ready",
		zap.String("chain", app.chain.Name()),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.String("cache_backend", cfg.Cache.Backend),
	)
	return app, nil
}

// newClient returns nil for a provider that is listed but disabled.
func newClient(name string, cfg config.Config, o options) (Client, error) {
	switch name {
	case config.CoinMarketCapName:
		c := cfg.CoinMarketCap
		if !c.Enabled {
			return nil, nil
		}
		opts := []coinmarketcap.Option{
			coinmarketcap.WithHTTPClient(ratelimit.PerMinute(o.httpClient, c.RateLimitPerMin, rateBurst)),
			coinmarketcap.WithLogger(o.logger),
			coinmarketcap.WithIDMapTTL(c.IDMapTTL()),
		}
		if c.BaseURL != "" {
			opts = append(opts, coinmarketcap.WithBaseURL(c.BaseURL))
		}
		client, err := coinmarketcap.New(c.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.CoinGeckoName:
		c := cfg.CoinGecko
		if !c.Enabled {
			return nil, nil
		}
		opts := []coingecko.Option{
			coingecko.WithHTTPClient(ratelimit.PerMinute(o.httpClient, c.RateLimitPerMin, rateBurst)),
			coingecko.WithLogger(o.logger),
			coingecko.WithIDMapTTL(c.IDMapTTL()),
			coingecko.WithPro(c.Pro),
		}
		if c.BaseURL != "" {
			opts = append(opts, coingecko.WithBaseURL(c.BaseURL))
		}
		client, err := coingecko.New(c.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

func newCacheBackend(ctx context.Context, c config.Cache, logger *zap.Logger) (cache.Store, cache.Locker, func() error, error) {
	switch c.Backend {
	case config.BackendRedis:
		r, err := cache.NewRedis(ctx, cache.RedisOptions{
			Host:     c.Redis.Host,
			Port:     c.Redis.Port,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return r, r, r.Close, nil
	default:
		m := cache.NewMemory()
		m.MaxItems = c.MaxItems
		return m, m, nil, nil
	}
}

func (a *App) Name() string { return a.provider.Name() }

// GetCoinQuotes runs a request through the cache (when enabled) and the
// fallback chain.
func (a *App) GetCoinQuotes(ctx context.Context, coins, quotes []symbol.Symbol) (*quote.CoinQuotes, error) {
	return a.provider.GetCoinQuotes(ctx, coins, quotes)
}

// Providers returns the fallback order.
func (a *App) Providers() []provider.Provider { return a.chain.Providers() }

// Client returns an enabled provider client by name.
func (a *App) Client(name string) (Client, error) {
	c, ok := a.clients[name]
	if !ok {
		names := make([]string, 0, len(a.clients))
		for n := range a.clients {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("provider %q is not enabled (enabled: %v)", name, names)
	}
	return c, nil
}

func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
