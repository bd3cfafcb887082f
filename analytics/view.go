package analytics

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"screener/model"
	"screener/tradelog"
)

// ErrInvalidParams wraps view parameter problems.
var ErrInvalidParams = errors.New("invalid view params")

// DefaultTopN is the ranking length used by DefaultViewParams.
const DefaultTopN = 5

// ViewParams are the caller-owned knobs of a report view. The embedded
// trade log params flatten into the same JSON object.
type ViewParams struct {
	Capital decimal.Decimal `json:"capital"`
	TopN    int             `json:"top_n"`
	tradelog.Params
}

// DefaultViewParams mirrors the dashboard defaults.
func DefaultViewParams() ViewParams {
	return ViewParams{
		Capital: decimal.NewFromInt(100000),
		TopN:    DefaultTopN,
		Params: tradelog.Params{
			Sort:     tradelog.DefaultSort,
			Page:     1,
			PageSize: tradelog.DefaultPageSize,
		},
	}
}

// Ranking is one horizon/direction leaderboard.
type Ranking struct {
	Horizon   string               `json:"horizon"`
	Direction Direction            `json:"direction"`
	Trades    []model.TradeOutcome `json:"trades"`
}

// View is everything a dashboard needs to draw one state of a report.
type View struct {
	Summary       Summary        `json:"summary"`
	Stats         []HorizonStats `json:"stats"`
	TopPerformers []Ranking      `json:"top_performers"`
	Distribution  []Bucket       `json:"distribution"`
	tradelog.Page
}

// Summary repeats the report's headline numbers.
type Summary struct {
	TotalSignals      int                 `json:"total_signals"`
	SuccessfulSignals int                 `json:"successful_signals"`
	FailedSignals     int                 `json:"failed_signals"`
	BestPerformer     *model.TradeOutcome `json:"best_performer"`
	WorstPerformer    *model.TradeOutcome `json:"worst_performer"`
}

// BuildView derives a view from rep. Stats only list horizons with data.
func BuildView(rep *model.Report, p ViewParams) (View, error) {
	if rep == nil {
		return View{}, fmt.Errorf("%w: nil report", ErrInvalidParams)
	}
	if p.Capital.IsNegative() {
		return View{}, fmt.Errorf("%w: capital must not be negative", ErrInvalidParams)
	}

	page, err := tradelog.Query(rep.Trades, p.Params)
	if err != nil {
		return View{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	v := View{
		Summary: Summary{
			TotalSignals:      rep.TotalSignals,
			SuccessfulSignals: rep.SuccessfulSignals,
			FailedSignals:     rep.FailedSignals,
			BestPerformer:     rep.BestPerformer,
			WorstPerformer:    rep.WorstPerformer,
		},
		Stats:         []HorizonStats{},
		TopPerformers: make([]Ranking, 0, 2*len(model.ReportHorizons)),
		Distribution:  BestHorizonDistribution(rep.Trades, model.ReportHorizons),
		Page:          page,
	}
	for _, h := range model.ReportHorizons {
		if s := ComputeStats(rep.Trades, h, p.Capital); s != nil {
			v.Stats = append(v.Stats, *s)
		}
		for _, dir := range []Direction{Gainers, Losers} {
			v.TopPerformers = append(v.TopPerformers, Ranking{
				Horizon:   h.Key(),
				Direction: dir,
				Trades:    TopPerformers(rep.Trades, h, dir, p.TopN),
			})
		}
	}
	return v, nil
}

// StatsFor returns the stats entry for h, if any.
func (v *View) StatsFor(h model.Horizon) *HorizonStats {
	for i := range v.Stats {
		if v.Stats[i].Horizon == h.Key() {
			return &v.Stats[i]
		}
	}
	return nil
}
