package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCREENER_"

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Data   DataConfig   `yaml:"data"`
	Cache  CacheConfig  `yaml:"cache"`
	View   ViewConfig   `yaml:"view"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	Mode        string   `yaml:"mode"` // gin mode: debug, release, test
	CORSOrigins []string `yaml:"cors_origins"`
	MaxUploadMB int      `yaml:"max_upload_mb"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Encoding   string `yaml:"encoding"` // json or console
	File       string `yaml:"file"`     // optional rotated log file
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type DataConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	LookaheadDays     int           `yaml:"lookahead_days"`
	FetchWindowDays   int           `yaml:"fetch_window_days"`
	ExtremaWindowDays int           `yaml:"extrema_window_days"`
	ExchangeSuffixes  []string      `yaml:"exchange_suffixes"`
	Preflight         bool          `yaml:"preflight"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend"` // memory or redis
	TTL           time.Duration `yaml:"ttl"`
	LatestTTL     time.Duration `yaml:"latest_ttl"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	PurgeSchedule string        `yaml:"purge_schedule"` // cron spec for the memory backend
}

type ViewConfig struct {
	DefaultCapital  float64 `yaml:"default_capital"`
	DefaultPageSize int     `yaml:"default_page_size"`
	TopN            int     `yaml:"top_n"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:        8000,
			Mode:        "release",
			CORSOrigins: []string{"*"},
			MaxUploadMB: 10,
		},
		Log: LogConfig{
			Level:      "info",
			Encoding:   "json",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
		Data: DataConfig{
			BaseURL:           "https://query1.finance.yahoo.com",
			Timeout:           15 * time.Second,
			LookaheadDays:     5,
			FetchWindowDays:   100,
			ExtremaWindowDays: 90,
			ExchangeSuffixes:  []string{".NS", ".BO"},
			Preflight:         true,
		},
		Cache: CacheConfig{
			Backend:       "memory",
			TTL:           24 * time.Hour,
			LatestTTL:     5 * time.Minute,
			PurgeSchedule: "@every 10m",
		},
		View: ViewConfig{
			DefaultCapital:  100000,
			DefaultPageSize: 25,
			TopN:            5,
		},
	}
}

// LoadFromFile reads a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// GetConfig resolves settings: defaults, then the YAML file, then
// SCREENER_* environment variables (a .env file in the working directory
// is loaded first when present).
func GetConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if configPath != "" {
		loaded, err := LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.RedisAddr) == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend: %q", c.Cache.Backend)
	}
	if c.View.DefaultCapital < 0 {
		return fmt.Errorf("view.default_capital must not be negative")
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("GIN_MODE", &cfg.Server.Mode)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_ENCODING", &cfg.Log.Encoding)
	str("LOG_FILE", &cfg.Log.File)
	str("DATA_BASE_URL", &cfg.Data.BaseURL)
	str("CACHE_BACKEND", &cfg.Cache.Backend)
	str("REDIS_ADDR", &cfg.Cache.RedisAddr)
	str("REDIS_PASSWORD", &cfg.Cache.RedisPassword)

	if v, ok := lookup(EnvPrefix + "EXCHANGE_SUFFIXES"); ok {
		cfg.Data.ExchangeSuffixes = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok && v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "PREFLIGHT"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sPREFLIGHT: %w", EnvPrefix, err)
		}
		cfg.Data.Preflight = b
	}

	for _, f := range []func() error{
		func() error { return num("PORT", &cfg.Server.Port) },
		func() error { return num("MAX_UPLOAD_MB", &cfg.Server.MaxUploadMB) },
		func() error { return num("REDIS_DB", &cfg.Cache.RedisDB) },
		func() error { return dur("DATA_TIMEOUT", &cfg.Data.Timeout) },
		func() error { return dur("CACHE_TTL", &cfg.Cache.TTL) },
	} {
		if err := f(); err != nil {
			return err
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
