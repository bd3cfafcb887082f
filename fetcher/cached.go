package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"screener/cache"
)

// Source is the upstream price API.
type Source interface {
	FetchDailyKLine(ctx context.Context, symbol string, start, end time.Time) ([]KLine, error)
	LatestPrice(ctx context.Context, symbol string) (float64, error)
	Ping(ctx context.Context) error
}

// CachedOptions controls how long fetched data stays in the store.
type CachedOptions struct {
	HistoryTTL time.Duration
	LatestTTL  time.Duration
}

// Cached puts a cache.Store in front of a Source and collapses concurrent
// identical lookups into one upstream request.
type Cached struct {
	src   Source
	store cache.Store
	opts  CachedOptions
	log   *zap.Logger
	group singleflight.Group
}

// NewCached wraps src. A nil logger disables cache diagnostics.
func NewCached(src Source, store cache.Store, opts CachedOptions, log *zap.Logger) *Cached {
	if opts.HistoryTTL <= 0 {
		opts.HistoryTTL = 24 * time.Hour
	}
	if opts.LatestTTL <= 0 {
		opts.LatestTTL = 5 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cached{src: src, store: store, opts: opts, log: log}
}

// FetchDailyKLine serves from the cache when possible.
func (c *Cached) FetchDailyKLine(ctx context.Context, symbol string, start, end time.Time) ([]KLine, error) {
	key := fmt.Sprintf("kline:%s:%s:%s", symbol, start.Format("20060102"), end.Format("20060102"))

	if data, ok := c.lookup(ctx, key); ok {
		var bars []KLine
		if err := json.Unmarshal(data, &bars); err == nil {
			return bars, nil
		}
	}

	return shared(ctx, &c.group, key, func(ctx context.Context) ([]KLine, error) {
		bars, err := c.src.FetchDailyKLine(ctx, symbol, start, end)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(bars); err == nil {
			c.save(ctx, key, data, c.opts.HistoryTTL)
		}
		return bars, nil
	})
}

// LatestPrice caches both prices and not-found answers.
func (c *Cached) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	key := "latest:" + symbol

	if data, ok := c.lookup(ctx, key); ok {
		if p, err := strconv.ParseFloat(string(data), 64); err == nil {
			if p <= 0 {
				return 0, fmt.Errorf("%s: %w", symbol, ErrNotFound)
			}
			return p, nil
		}
	}

	return shared(ctx, &c.group, key, func(ctx context.Context) (float64, error) {
		p, err := c.src.LatestPrice(ctx, symbol)
		switch {
		case errors.Is(err, ErrNotFound):
			c.save(ctx, key, []byte("0"), c.opts.LatestTTL)
			return 0, err
		case err != nil:
			return 0, err
		}
		c.save(ctx, key, []byte(strconv.FormatFloat(p, 'f', -1, 64)), c.opts.LatestTTL)
		return p, nil
	})
}

// Ping is never cached.
func (c *Cached) Ping(ctx context.Context) error {
	return c.src.Ping(ctx)
}

func (c *Cached) lookup(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return data, ok
}

func (c *Cached) save(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}
