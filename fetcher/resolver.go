package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultSuffixes are the NSE and BSE exchange suffixes, tried in order.
var DefaultSuffixes = []string{".NS", ".BO"}

// LatestPricer is the part of Source the resolver needs.
type LatestPricer interface {
	LatestPrice(ctx context.Context, symbol string) (float64, error)
}

// Resolver maps a bare ticker to the exchange-qualified symbol the source
// knows about. Answers are remembered for the life of the resolver.
type Resolver struct {
	src      LatestPricer
	suffixes []string

	mu       sync.RWMutex
	resolved map[string]string // "" marks a known miss
	group    singleflight.Group
}

// NewResolver creates a resolver. With no suffixes symbols pass through
// unchanged.
func NewResolver(src LatestPricer, suffixes []string) *Resolver {
	norm := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		norm = append(norm, s)
	}
	return &Resolver{src: src, suffixes: norm, resolved: make(map[string]string)}
}

// Resolve returns the qualified symbol, ErrNotFound when no candidate exists,
// or the first non-not-found error the source returned.
func (r *Resolver) Resolve(ctx context.Context, raw string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(raw))
	if sym == "" {
		return "", ErrNotFound
	}
	if len(r.suffixes) == 0 {
		return sym, nil
	}

	r.mu.RLock()
	got, ok := r.resolved[sym]
	r.mu.RUnlock()
	if ok {
		if got == "" {
			return "", fmt.Errorf("%s: %w", sym, ErrNotFound)
		}
		return got, nil
	}

	return shared(ctx, &r.group, sym, func(ctx context.Context) (string, error) {
		return r.probe(ctx, sym)
	})
}

func (r *Resolver) probe(ctx context.Context, sym string) (string, error) {
	var firstErr error
	for _, cand := range r.candidates(sym) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p, err := r.src.LatestPrice(ctx, cand)
		if err == nil && p > 0 {
			r.remember(sym, cand)
			return cand, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return "", firstErr
	}
	r.remember(sym, "")
	return "", fmt.Errorf("%s: %w", sym, ErrNotFound)
}

func (r *Resolver) candidates(sym string) []string {
	for _, s := range r.suffixes {
		if strings.HasSuffix(sym, s) {
			return []string{sym}
		}
	}
	out := make([]string, 0, len(r.suffixes))
	for _, s := range r.suffixes {
		out = append(out, sym+s)
	}
	return out
}

func (r *Resolver) remember(sym, resolved string) {
	r.mu.Lock()
	r.resolved[sym] = resolved
	r.mu.Unlock()
}
