package analytics

import "screener/model"

// Bucket counts trades whose best return landed on Horizon.
type Bucket struct {
	Horizon string `json:"horizon"`
	Count   int    `json:"count"`
}

// BestHorizonDistribution attributes each successful trade to the horizon
// with its highest non-null return; the earlier horizon wins a tie. Buckets
// follow the order of horizons.
func BestHorizonDistribution(trades []model.TradeOutcome, horizons []model.Horizon) []Bucket {
	buckets := make([]Bucket, len(horizons))
	for i, h := range horizons {
		buckets[i].Horizon = h.Key()
	}
	for i := range trades {
		t := &trades[i]
		if !t.IsSuccess() {
			continue
		}
		best := -1
		var bestVal float64
		for j, h := range horizons {
			r := t.Return(h)
			if r == nil {
				continue
			}
			if best < 0 || *r > bestVal {
				best, bestVal = j, *r
			}
		}
		if best >= 0 {
			buckets[best].Count++
		}
	}
	return buckets
}
