package screenerd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"screener/analytics"
	"screener/backtest"
	"screener/cache"
	"screener/config"
	"screener/fetcher"
	"screener/tradelog"
)

// Stack is the assembled backtest pipeline shared by the server and the CLI.
type Stack struct {
	Runner *backtest.Runner
	Store  cache.Store
}

// NewStack builds the price source, its cache and the runner from cfg.
func NewStack(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Stack, error) {
	store, err := newStore(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	src := fetcher.NewCached(
		fetcher.NewKLineFetcher(cfg.Data.BaseURL, cfg.Data.Timeout),
		store,
		fetcher.CachedOptions{HistoryTTL: cfg.Cache.TTL, LatestTTL: cfg.Cache.LatestTTL},
		log.Named("cache"),
	)
	runner := backtest.NewRunner(src, backtest.Options{
		Suffixes:          cfg.Data.ExchangeSuffixes,
		LookaheadDays:     cfg.Data.LookaheadDays,
		FetchWindowDays:   cfg.Data.FetchWindowDays,
		ExtremaWindowDays: cfg.Data.ExtremaWindowDays,
		Preflight:         cfg.Data.Preflight,
	}, log.Named("backtest"))

	return &Stack{Runner: runner, Store: store}, nil
}

// Close releases the cache connection.
func (s *Stack) Close() error {
	return s.Store.Close()
}

func newStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return cache.NewMemory(), nil
	case "redis":
		r, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %q", cfg.Backend)
	}
}

// ViewDefaults turns the view section into default query params.
func ViewDefaults(cfg config.ViewConfig) analytics.ViewParams {
	p := analytics.DefaultViewParams()
	if cfg.DefaultCapital > 0 {
		p.Capital = decimal.NewFromFloat(cfg.DefaultCapital)
	}
	if cfg.DefaultPageSize > 0 {
		p.PageSize = cfg.DefaultPageSize
	}
	if cfg.TopN > 0 {
		p.TopN = cfg.TopN
	}
	p.Sort = tradelog.DefaultSort
	return p
}
