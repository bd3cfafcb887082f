// Package analytics derives summary views from a report's trades. Every
// function is pure: trades are never modified and only successful trades
// take part.
package analytics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"screener/model"
)

var onePercent = decimal.New(1, -2)

// Partition summarizes the positive or negative returns of a horizon. An
// empty partition reports zeros.
type Partition struct {
	Count  int     `json:"count"`
	Median float64 `json:"median"`
	Avg    float64 `json:"avg"`
}

// HorizonStats summarizes the non-null returns of one horizon.
type HorizonStats struct {
	Horizon       string          `json:"horizon"`
	Count         int             `json:"count"`
	Avg           float64         `json:"avg"`
	Median        float64         `json:"median"`
	Highest       float64         `json:"highest"`
	Lowest        float64         `json:"lowest"`
	Positive      Partition       `json:"positive"`
	Negative      Partition       `json:"negative"`
	Capital       decimal.Decimal `json:"capital"`
	CapitalReturn decimal.Decimal `json:"capital_return"`
}

// ComputeStats returns nil when no successful trade has a return for h.
// Zero returns count toward the totals but belong to neither partition.
func ComputeStats(trades []model.TradeOutcome, h model.Horizon, capital decimal.Decimal) *HorizonStats {
	vals := returns(trades, h)
	if len(vals) == 0 {
		return nil
	}

	var pos, neg []float64
	for _, v := range vals {
		switch {
		case v > 0:
			pos = append(pos, v)
		case v < 0:
			neg = append(neg, v)
		}
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	avg := mean(vals)
	return &HorizonStats{
		Horizon:       h.Key(),
		Count:         len(vals),
		Avg:           round2(avg),
		Median:        round2(median(vals)),
		Highest:       sorted[len(sorted)-1],
		Lowest:        sorted[0],
		Positive:      partition(pos),
		Negative:      partition(neg),
		Capital:       capital,
		CapitalReturn: CapitalReturn(capital, avg),
	}
}

// CapitalReturn is capital * avgPct / 100 on the unrounded average, kept
// exact.
func CapitalReturn(capital decimal.Decimal, avgPct float64) decimal.Decimal {
	return capital.Mul(decimal.NewFromFloat(avgPct)).Mul(onePercent)
}

func returns(trades []model.TradeOutcome, h model.Horizon) []float64 {
	var out []float64
	for i := range trades {
		t := &trades[i]
		if !t.IsSuccess() {
			continue
		}
		if r := t.Return(h); r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func partition(vals []float64) Partition {
	if len(vals) == 0 {
		return Partition{}
	}
	return Partition{
		Count:  len(vals),
		Median: round2(median(vals)),
		Avg:    round2(mean(vals)),
	}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func median(vals []float64) float64 {
	n := len(vals)
	if n == 0 {
		return 0
	}
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
