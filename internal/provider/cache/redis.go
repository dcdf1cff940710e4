package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisOptions locates the Redis instance used for entries and locks.
type RedisOptions struct {
	Host     string
	Port     int
	Password string
	DB       int
	// RetryInterval is the pause between lock attempts.
	RetryInterval time.Duration
	Logger        *zap.Logger
}

// Redis is a Store on go-redis and a Locker on the Redlock algorithm, so
// several processes share both entries and the fetch lock.
type Redis struct {
	cache         *redis.Client
	locks         *redlock.RedLock
	retryInterval time.Duration
	logger        *zap.Logger
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	lockAddr := url.URL{Scheme: "tcp", Host: addr}
	if opts.Password != "" {
		lockAddr.User = url.UserPassword("", opts.Password)
	}

	locks, err := redlock.NewRedLock(ctx, []string{lockAddr.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to create redlock manager: %w", err)
	}

	cache := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := cache.Ping(ctx).Err(); err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("failed to connect to redis cache: %w", err)
	}

	r := &Redis{
		cache:         cache,
		locks:         locks,
		retryInterval: opts.RetryInterval,
		logger:        opts.Logger,
	}
	if r.retryInterval <= 0 {
		r.retryInterval = 100 * time.Millisecond
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	r.logger.Info("redis result cache initialized", zap.String("address", addr), zap.Int("db", opts.DB))
	return r, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.cache.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.cache.Set(ctx, key, value, ttl).Err()
}

// Lock retries until the Redlock quorum grants name or ctx is done.
func (r *Redis) Lock(ctx context.Context, name string, lease time.Duration) (func(context.Context) error, error) {
	for {
		expiry, err := r.locks.Lock(ctx, name, lease)
		if err == nil && expiry > 0 {
			r.logger.Debug("lock acquired", zap.String("lock", name), zap.Duration("expiry", expiry))
			return func(rctx context.Context) error {
				return r.locks.UnLock(rctx, name)
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retryInterval):
		}
	}
}

func (r *Redis) Close() error {
	return r.cache.Close()
}
