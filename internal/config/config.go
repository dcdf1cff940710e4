package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. ANYCOIN_SERVER_PORT.
const EnvPrefix = "ANYCOIN"

// Provider names accepted in Providers.
const (
	CoinMarketCapName = "coinmarketcap"
	CoinGeckoName     = "coingecko"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Env overrides use the ANYCOIN prefix and the struct path, e.g.
// ANYCOIN_COINMARKETCAP_API_KEY. Fields carry no envconfig name tags, so
// unprefixed variables such as API_KEY are never read.

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec" split_words:"true"`
}

type Log struct {
	Level string `json:"level"`
	// File adds a JSON log file next to console output when set.
	File string `json:"file"`
}

type CoinMarketCap struct {
	Enabled bool   `json:"enabled"`
	APIKey  string `json:"api_key" split_words:"true"`
	BaseURL string `json:"base_url" split_words:"true"`
	// IDMapTTLSec of zero keeps id listings for the process lifetime.
	IDMapTTLSec int `json:"id_map_ttl_sec" split_words:"true"`
	// RateLimitPerMin gates outgoing requests; zero, the default, disables it.
	RateLimitPerMin int `json:"rate_limit_per_min" split_words:"true"`
}

type CoinGecko struct {
	Enabled         bool   `json:"enabled"`
	APIKey          string `json:"api_key" split_words:"true"`
	Pro             bool   `json:"pro"`
	BaseURL         string `json:"base_url" split_words:"true"`
	IDMapTTLSec     int    `json:"id_map_ttl_sec" split_words:"true"`
	RateLimitPerMin int    `json:"rate_limit_per_min" split_words:"true"`
}

type Redis struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type Cache struct {
	Enabled      bool   `json:"enabled"`
	Backend      string `json:"backend"`
	TTLSec       int    `json:"ttl_sec" split_words:"true"`
	LockLeaseSec int    `json:"lock_lease_sec" split_words:"true"`
	MaxItems     int    `json:"max_items" split_words:"true"`
	Redis        Redis  `json:"redis"`
}

type Config struct {
	Server Server `json:"server"`
	Log    Log    `json:"log"`
	// Providers is the fallback order; disabled entries are skipped.
	Providers     []string      `json:"providers"`
	CoinMarketCap CoinMarketCap `json:"coinmarketcap"`
	CoinGecko     CoinGecko     `json:"coingecko"`
	Cache         Cache         `json:"cache"`
}

func Default() Config {
	return Config{
		Server:    Server{Port: "8080", RequestTimeoutSec: 10},
		Log:       Log{Level: "info"},
		Providers: []string{CoinMarketCapName, CoinGeckoName},
		CoinMarketCap: CoinMarketCap{
			Enabled:     true,
			IDMapTTLSec: 24 * 60 * 60,
		},
		CoinGecko: CoinGecko{
			Enabled:     false,
			IDMapTTLSec: 24 * 60 * 60,
		},
		Cache: Cache{
			Enabled:      true,
			Backend:      BackendMemory,
			TTLSec:       60,
			LockLeaseSec: 30,
			MaxItems:     10000,
			Redis:        Redis{Host: "localhost", Port: 6379},
		},
	}
}

// Load builds the configuration from defaults, then the JSON file at path
// (or ./config.json when path is empty and it exists), then .env, then
// ANYCOIN_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// real environment wins over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("apply env: %w", err)
	}
	cfg.Providers = normalizeNames(cfg.Providers)
	return cfg, nil
}

// Validate rejects configurations no provider chain can be built from.
func (c Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("config: no providers listed")
	}
	enabled := 0
	for _, name := range c.Providers {
		switch name {
		case CoinMarketCapName:
			if c.CoinMarketCap.Enabled {
				if c.CoinMarketCap.APIKey == "" {
					return errors.New("config: coinmarketcap is enabled without an api key")
				}
				enabled++
			}
		case CoinGeckoName:
			if c.CoinGecko.Enabled {
				if c.CoinGecko.APIKey == "" {
					return errors.New("config: coingecko is enabled without an api key")
				}
				enabled++
			}
		default:
			return fmt.Errorf("config: unknown provider %q", name)
		}
	}
	if enabled == 0 {
		return errors.New("config: every listed provider is disabled")
	}
	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case BackendMemory, BackendRedis:
		default:
			return fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend)
		}
	}
	return nil
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (c CoinMarketCap) IDMapTTL() time.Duration { return seconds(c.IDMapTTLSec) }

func (c CoinGecko) IDMapTTL() time.Duration { return seconds(c.IDMapTTLSec) }

func (c Cache) TTL() time.Duration { return seconds(c.TTLSec) }

func (c Cache) LockLease() time.Duration { return seconds(c.LockLeaseSec) }

func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
