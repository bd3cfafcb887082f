package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"screener/fetcher"
	"screener/model"
	"screener/trading"
)

// Runner measures the forward performance of uploaded signals. A Runner
// holds no per-run state and may serve concurrent runs.
type Runner struct {
	src      fetcher.Source
	resolver *fetcher.Resolver
	opts     Options
	log      *zap.Logger
}

// NewRunner builds a runner over src. A nil logger discards logs.
func NewRunner(src fetcher.Source, opts Options, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		src:      src,
		resolver: fetcher.NewResolver(src, opts.Suffixes),
		opts:     opts.withDefaults(),
		log:      log,
	}
}

// evaluate computes the outcome of one signal. Lookup problems become a
// Failed outcome; only ctx cancellation is left for the caller to notice.
func (r *Runner) evaluate(ctx context.Context, sig model.Signal, log *zap.Logger) model.TradeOutcome {
	raw := strings.ToUpper(strings.TrimSpace(sig.Symbol))
	if raw == "" {
		return model.Failed("", strings.TrimSpace(sig.RawDate), model.ReasonMissingSymbol)
	}

	symbol, err := r.resolver.Resolve(ctx, raw)
	if err != nil {
		if errors.Is(err, fetcher.ErrNotFound) {
			return model.Failed(raw, sig.RawDate, model.ReasonSymbolNotFound)
		}
		log.Warn("resolve failed", zap.String("symbol", raw), zap.Error(err))
		return model.Failed(raw, sig.RawDate, model.ReasonLookupError)
	}

	signalDate, err := trading.ParseDate(sig.RawDate)
	if err != nil {
		return model.Failed(symbol, sig.RawDate, model.ReasonInvalidDate)
	}
	dateStr := trading.FormatDate(signalDate)

	bars, err := r.loadBars(ctx, symbol, signalDate)
	switch {
	case errors.Is(err, fetcher.ErrNotFound):
		return model.Failed(symbol, dateStr, model.ReasonNoData)
	case err != nil:
		log.Warn("history fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return model.Failed(symbol, dateStr, model.ReasonLookupError)
	case len(bars) == 0:
		return model.Failed(symbol, dateStr, model.ReasonNoData)
	}

	return measure(symbol, signalDate, bars, r.opts)
}

func (r *Runner) loadBars(ctx context.Context, symbol string, from time.Time) ([]Bar, error) {
	end := from.AddDate(0, 0, r.opts.FetchWindowDays)
	kl, err := r.src.FetchDailyKLine(ctx, symbol, from, end)
	if err != nil {
		return nil, err
	}

	bars := make([]Bar, 0, len(kl))
	for _, k := range kl {
		t, err := time.Parse(trading.DateLayout, k.Date)
		if err != nil {
			continue
		}
		bars = append(bars, Bar{
			Time:   t,
			Open:   k.Open,
			High:   k.High,
			Low:    k.Low,
			Close:  k.Close,
			Volume: k.Volume,
		})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// measure derives entry, per-horizon exits and the extrema window from a
// sorted bar series.
func measure(symbol string, signalDate time.Time, bars []Bar, opts Options) model.TradeOutcome {
	days := make([]time.Time, len(bars))
	for i, b := range bars {
		days[i] = b.Time
	}
	cal := trading.NewCalendar(days)

	dateStr := trading.FormatDate(signalDate)
	ei, ok := cal.NextTradingDay(signalDate, opts.LookaheadDays)
	if !ok || bars[ei].Close <= 0 {
		return model.Failed(symbol, dateStr, model.ReasonNoEntryData)
	}
	entry := bars[ei]
	entryPrice := round2(entry.Close)

	out := model.TradeOutcome{
		Symbol:     symbol,
		SignalDate: dateStr,
		EntryDate:  trading.FormatDate(entry.Time),
		Status:     model.StatusSuccess,
		EntryPrice: &entryPrice,
	}

	for _, h := range model.AllHorizons {
		xi, ok := cal.NextTradingDay(entry.Time.AddDate(0, 0, h.Days()), opts.LookaheadDays)
		if !ok {
			continue
		}
		exit := bars[xi].Close
		ret := (exit - entry.Close) / entry.Close * 100
		out.SetHorizon(h, round2(exit), round2(ret))
	}

	windowEnd := entry.Time.AddDate(0, 0, opts.ExtremaWindowDays)
	hi, lo := -1, -1
	for i := ei; i < len(bars) && !bars[i].Time.After(windowEnd); i++ {
		if hi < 0 || bars[i].High > bars[hi].High {
			hi = i
		}
		if lo < 0 || bars[i].Low < bars[lo].Low {
			lo = i
		}
	}
	if hi >= 0 {
		high, highDate := round2(bars[hi].High), trading.FormatDate(bars[hi].Time)
		low, lowDate := round2(bars[lo].Low), trading.FormatDate(bars[lo].Time)
		out.MaxHigh90d, out.MaxHighDate = &high, &highDate
		out.MaxLow90d, out.MaxLowDate = &low, &lowDate
	}
	return out
}

func (r *Runner) preflight(ctx context.Context) error {
	if !r.opts.Preflight {
		return nil
	}
	if err := r.src.Ping(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
