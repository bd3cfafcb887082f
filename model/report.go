package model

// Report is the result of one ingestion run. It is read-only once assembled.
type Report struct {
	RunID             string `json:"run_id,omitempty"`
	TotalSignals      int    `json:"total_signals"`
	SuccessfulSignals int    `json:"successful_signals"`
	FailedSignals     int    `json:"failed_signals"`

	AvgReturn7d  *float64 `json:"avg_return_7d"`
	WinRate7d    *float64 `json:"win_rate_7d"`
	AvgReturn30d *float64 `json:"avg_return_30d"`
	WinRate30d   *float64 `json:"win_rate_30d"`
	AvgReturn90d *float64 `json:"avg_return_90d"`
	WinRate90d   *float64 `json:"win_rate_90d"`

	BestPerformer  *TradeOutcome `json:"best_performer"`
	WorstPerformer *TradeOutcome `json:"worst_performer"`

	Trades []TradeOutcome `json:"trades"`
}

// AvgReturn returns the report-level average for a report horizon.
func (r *Report) AvgReturn(h Horizon) *float64 {
	switch h {
	case H7:
		return r.AvgReturn7d
	case H30:
		return r.AvgReturn30d
	case H90:
		return r.AvgReturn90d
	}
	return nil
}

// WinRate returns the report-level win rate for a report horizon.
func (r *Report) WinRate(h Horizon) *float64 {
	switch h {
	case H7:
		return r.WinRate7d
	case H30:
		return r.WinRate30d
	case H90:
		return r.WinRate90d
	}
	return nil
}

// SetSummary stores the average and win rate for a report horizon.
func (r *Report) SetSummary(h Horizon, avg, winRate *float64) {
	switch h {
	case H7:
		r.AvgReturn7d, r.WinRate7d = avg, winRate
	case H30:
		r.AvgReturn30d, r.WinRate30d = avg, winRate
	case H90:
		r.AvgReturn90d, r.WinRate90d = avg, winRate
	}
}
