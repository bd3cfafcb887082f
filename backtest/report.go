package backtest

import "screener/model"

// BuildReport summarizes outcomes in input order. Averages and win rates
// count successful trades with a non-null return for the horizon; both stay
// nil when there are none.
func BuildReport(trades []model.TradeOutcome) *model.Report {
	rep := &model.Report{
		TotalSignals: len(trades),
		Trades:       trades,
	}
	if rep.Trades == nil {
		rep.Trades = []model.TradeOutcome{}
	}

	for i := range trades {
		if trades[i].IsSuccess() {
			rep.SuccessfulSignals++
		}
	}
	rep.FailedSignals = rep.TotalSignals - rep.SuccessfulSignals

	for _, h := range model.ReportHorizons {
		var sum float64
		var n, wins int
		for i := range trades {
			t := &trades[i]
			if !t.IsSuccess() || t.Return(h) == nil {
				continue
			}
			v := *t.Return(h)
			sum += v
			n++
			if v > 0 {
				wins++
			}
		}
		if n == 0 {
			continue
		}
		avg := round2(sum / float64(n))
		rate := round2(float64(wins) / float64(n) * 100)
		rep.SetSummary(h, &avg, &rate)
	}

	var best, worst *model.TradeOutcome
	for i := range trades {
		t := &trades[i]
		r := t.Return(model.H30)
		if !t.IsSuccess() || r == nil {
			continue
		}
		if best == nil || *r > *best.Return(model.H30) {
			best = t
		}
		if worst == nil || *r < *worst.Return(model.H30) {
			worst = t
		}
	}
	if best != nil {
		b, w := *best, *worst
		rep.BestPerformer, rep.WorstPerformer = &b, &w
	}
	return rep
}
