package analytics

import (
	"sort"

	"screener/model"
)

type Direction string

const (
	Gainers Direction = "gainers"
	Losers  Direction = "losers"
)

// TopPerformers returns up to n successful trades with a strictly positive
// (gainers) or strictly negative (losers) return for h, best first. Equal
// returns keep input order.
func TopPerformers(trades []model.TradeOutcome, h model.Horizon, dir Direction, n int) []model.TradeOutcome {
	out := []model.TradeOutcome{}
	if n <= 0 {
		return out
	}
	for i := range trades {
		t := &trades[i]
		r := t.Return(h)
		if !t.IsSuccess() || r == nil {
			continue
		}
		if (dir == Gainers && *r > 0) || (dir == Losers && *r < 0) {
			out = append(out, *t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := *out[i].Return(h), *out[j].Return(h)
		if dir == Gainers {
			return a > b
		}
		return a < b
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
