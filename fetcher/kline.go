package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the Yahoo Finance chart API host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

var (
	// ErrNotFound means the source has no data for the symbol.
	ErrNotFound = errors.New("symbol not found")
	// ErrUnavailable means the source could not be reached at all.
	ErrUnavailable = errors.New("price source unavailable")
)

// KLine is one daily bar. Prices are split/dividend adjusted.
type KLine struct {
	Date   string  `json:"date"` // YYYY-MM-DD in the exchange's timezone
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume int64   `json:"volume"`
}

// KLineFetcher pulls daily history from the chart API.
type KLineFetcher struct {
	client  *http.Client
	baseURL string
}

// NewKLineFetcher creates a fetcher. An empty baseURL uses DefaultBaseURL.
func NewKLineFetcher(baseURL string, timeout time.Duration) *KLineFetcher {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &KLineFetcher{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// FetchDailyKLine returns bars with start <= date < end, oldest first.
func (f *KLineFetcher) FetchDailyKLine(ctx context.Context, symbol string, start, end time.Time) ([]KLine, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Unix()))
	q.Set("interval", "1d")
	q.Set("events", "history")

	body, err := f.get(ctx, symbol, q)
	if err != nil {
		return nil, err
	}
	chart, err := parseChart(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", symbol, err)
	}
	return chart.klines(), nil
}

// LatestPrice returns the most recent close for symbol.
func (f *KLineFetcher) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("range", "5d")
	q.Set("interval", "1d")

	body, err := f.get(ctx, symbol, q)
	if err != nil {
		return 0, err
	}
	chart, err := parseChart(body)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", symbol, err)
	}
	if chart.Meta.RegularMarketPrice != nil && *chart.Meta.RegularMarketPrice > 0 {
		return *chart.Meta.RegularMarketPrice, nil
	}
	kl := chart.klines()
	if len(kl) == 0 {
		return 0, ErrNotFound
	}
	return kl[len(kl)-1].Close, nil
}

// Ping checks that the chart API answers at all. Any HTTP response below 500
// counts as reachable.
func (f *KLineFetcher) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/v8/finance/chart/%5ENSEI?range=1d&interval=1d", nil)
	if err != nil {
		return err
	}
	setHeaders(req)
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (f *KLineFetcher) get(ctx context.Context, symbol string, q url.Values) ([]byte, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.baseURL, url.PathEscape(symbol), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	setHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("chart %s: status %d", symbol, resp.StatusCode)
	}
	return body, nil
}

func setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")
}

type chartResult struct {
	Meta struct {
		Symbol             string   `json:"symbol"`
		GMTOffset          int64    `json:"gmtoffset"`
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

func parseChart(data []byte) (*chartResult, error) {
	var resp struct {
		Chart struct {
			Result []chartResult `json:"result"`
			Error  *struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		} `json:"chart"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	if e := resp.Chart.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("chart error %s: %s", e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Chart.Result[0], nil
}

// klines flattens the columnar chart payload. Rows without a close are
// skipped; OHL are scaled by adjclose/close when an adjusted close exists.
func (c *chartResult) klines() []KLine {
	if len(c.Indicators.Quote) == 0 {
		return nil
	}
	q := c.Indicators.Quote[0]
	var adj []*float64
	if len(c.Indicators.AdjClose) > 0 {
		adj = c.Indicators.AdjClose[0].AdjClose
	}

	out := make([]KLine, 0, len(c.Timestamp))
	for i, ts := range c.Timestamp {
		closeP := at(q.Close, i)
		if closeP == nil || *closeP <= 0 {
			continue
		}
		factor := 1.0
		if a := at(adj, i); a != nil && *a > 0 {
			factor = *a / *closeP
		}
		k := KLine{
			Date:  time.Unix(ts+c.Meta.GMTOffset, 0).UTC().Format("2006-01-02"),
			Close: *closeP * factor,
		}
		k.Open = valueOr(at(q.Open, i), *closeP) * factor
		k.High = valueOr(at(q.High, i), *closeP) * factor
		k.Low = valueOr(at(q.Low, i), *closeP) * factor
		if i < len(q.Volume) && q.Volume[i] != nil {
			k.Volume = *q.Volume[i]
		}
		out = append(out, k)
	}
	return out
}

func at(xs []*float64, i int) *float64 {
	if i < 0 || i >= len(xs) {
		return nil
	}
	return xs[i]
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
