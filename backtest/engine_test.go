package backtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screener/fetcher"
	"screener/model"
)

// fakeSource serves weekday bars with close = 100 + day of year.
type fakeSource struct {
	mu      sync.Mutex
	series  map[string][2]time.Time // symbol -> [first, last] trading day
	errs    map[string]error
	prices  map[string]float64
	pingErr error
	block   bool
	entered chan struct{} // signalled when a blocked fetch starts waiting
	fetches int
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func (f *fakeSource) FetchDailyKLine(ctx context.Context, symbol string, start, end time.Time) ([]fetcher.KLine, error) {
	f.mu.Lock()
	f.fetches++
	block := f.block
	f.mu.Unlock()
	if block {
		if f.entered != nil {
			select {
			case f.entered <- struct{}{}:
			default:
			}
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	span, ok := f.series[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, fetcher.ErrNotFound)
	}
	var out []fetcher.KLine
	for d := span[0]; !d.After(span[1]); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if d.Before(start) || !d.Before(end) {
			continue
		}
		c := 100 + float64(d.YearDay())
		out = append(out, fetcher.KLine{Date: d.Format("2006-01-02"), Open: c, High: c + 1, Low: c - 1, Close: c})
	}
	return out, nil
}

func (f *fakeSource) LatestPrice(_ context.Context, symbol string) (float64, error) {
	if p, ok := f.prices[symbol]; ok {
		return p, nil
	}
	return 0, fetcher.ErrNotFound
}

func (f *fakeSource) Ping(context.Context) error { return f.pingErr }

func newFake() *fakeSource {
	full := [2]time.Time{day("2024-01-01"), day("2024-12-31")}
	return &fakeSource{series: map[string][2]time.Time{
		"AAA":   full,
		"CCC":   full,
		"SHORT": {day("2024-01-01"), day("2024-01-31")},
		"GAP":   {day("2024-01-20"), day("2024-12-31")},
	}}
}

func f64(v float64) *float64 { return &v }
func str(v string) *string    { return &v }

func TestMeasureOutcome(t *testing.T) {
	r := NewRunner(newFake(), Options{}, nil)
	out := r.evaluate(context.Background(), model.Signal{Row: 1, Symbol: "aaa", RawDate: "06-01-2024"}, r.log)

	require.Equal(t, model.StatusSuccess, out.Status)
	assert.Equal(t, "AAA", out.Symbol)
	assert.Equal(t, "2024-01-06", out.SignalDate)
	assert.Equal(t, "2024-01-08", out.EntryDate, "saturday signal enters monday")
	assert.Equal(t, f64(108), out.EntryPrice)

	assert.Equal(t, f64(115), out.ExitPrice7d)
	assert.Equal(t, f64(6.48), out.Return7d)
	assert.Equal(t, f64(12.96), out.Return14d)
	assert.Equal(t, f64(138), out.ExitPrice30d)
	assert.Equal(t, f64(27.78), out.Return30d)
	// 2024-04-07 is a Sunday, exit rolls to Monday 04-08.
	assert.Equal(t, f64(199), out.ExitPrice90d)
	assert.Equal(t, f64(84.26), out.Return90d)

	assert.Equal(t, f64(197), out.MaxHigh90d)
	assert.Equal(t, str("2024-04-05"), out.MaxHighDate)
	assert.Equal(t, f64(107), out.MaxLow90d)
	assert.Equal(t, str("2024-01-08"), out.MaxLowDate)
}

func TestMeasurePartialHorizons(t *testing.T) {
	r := NewRunner(newFake(), Options{}, nil)
	out := r.evaluate(context.Background(), model.Signal{Symbol: "SHORT", RawDate: "2024-01-08"}, r.log)

	require.True(t, out.IsSuccess())
	assert.NotNil(t, out.Return7d)
	assert.NotNil(t, out.Return14d)
	assert.Nil(t, out.Return30d)
	assert.Nil(t, out.ExitPrice30d)
	assert.Nil(t, out.Return90d)
	assert.Equal(t, str("2024-01-31"), out.MaxHighDate)
}

func TestFailureReasons(t *testing.T) {
	src := newFake()
	src.errs = map[string]error{"ERR": errors.New("boom")}
	r := NewRunner(src, Options{}, nil)

	cases := []struct {
		sig    model.Signal
		reason string
	}{
		{model.Signal{Symbol: " ", RawDate: "2024-01-02"}, model.ReasonMissingSymbol},
		{model.Signal{Symbol: "AAA", RawDate: "not a date"}, model.ReasonInvalidDate},
		{model.Signal{Symbol: "ZZZ", RawDate: "2024-01-02"}, model.ReasonNoData},
		{model.Signal{Symbol: "GAP", RawDate: "2024-01-02"}, model.ReasonNoEntryData},
		{model.Signal{Symbol: "ERR", RawDate: "2024-01-02"}, model.ReasonLookupError},
	}
	for _, c := range cases {
		t.Run(c.reason, func(t *testing.T) {
			out := r.evaluate(context.Background(), c.sig, r.log)
			assert.Equal(t, model.StatusFailed, out.Status)
			assert.Equal(t, c.reason, out.Reason)
			assert.Equal(t, model.Failed(out.Symbol, out.SignalDate, c.reason), out, "failed outcome carries no prices")
		})
	}
}

func TestSymbolResolution(t *testing.T) {
	src := newFake()
	src.series["AAA.NS"] = src.series["AAA"]
	src.prices = map[string]float64{"AAA.NS": 150}
	r := NewRunner(src, Options{Suffixes: fetcher.DefaultSuffixes}, nil)

	out := r.evaluate(context.Background(), model.Signal{Symbol: "aaa", RawDate: "2024-01-08"}, r.log)
	assert.True(t, out.IsSuccess())
	assert.Equal(t, "AAA.NS", out.Symbol)

	out = r.evaluate(context.Background(), model.Signal{Symbol: "nope", RawDate: "2024-01-08"}, r.log)
	assert.Equal(t, model.ReasonSymbolNotFound, out.Reason)
	assert.Equal(t, "NOPE", out.Symbol)
}

func TestBuildReport(t *testing.T) {
	ok := func(sym string, r7, r30 *float64) model.TradeOutcome {
		return model.TradeOutcome{Symbol: sym, Status: model.StatusSuccess, EntryPrice: f64(10), Return7d: r7, Return30d: r30}
	}
	trades := []model.TradeOutcome{
		ok("A", f64(5), f64(10)),
		model.Failed("B", "2024-01-01", model.ReasonNoData),
		ok("C", f64(-3), f64(-4)),
		ok("D", nil, f64(10)),
		ok("E", f64(0), nil),
	}
	rep := BuildReport(trades)

	assert.Equal(t, 5, rep.TotalSignals)
	assert.Equal(t, 4, rep.SuccessfulSignals)
	assert.Equal(t, 1, rep.FailedSignals)
	assert.Equal(t, f64(0.67), rep.AvgReturn7d)
	assert.Equal(t, f64(33.33), rep.WinRate7d)
	assert.Equal(t, f64(5.33), rep.AvgReturn30d)
	assert.Equal(t, f64(66.67), rep.WinRate30d)
	assert.Nil(t, rep.AvgReturn90d)
	assert.Nil(t, rep.WinRate90d)

	require.NotNil(t, rep.BestPerformer)
	assert.Equal(t, "A", rep.BestPerformer.Symbol, "first of equal returns wins")
	assert.Equal(t, "C", rep.WorstPerformer.Symbol)
}

func TestBuildReportEmpty(t *testing.T) {
	rep := BuildReport(nil)
	assert.Equal(t, 0, rep.TotalSignals)
	assert.NotNil(t, rep.Trades)
	assert.Nil(t, rep.BestPerformer)
	assert.Nil(t, rep.WinRate30d)
}
