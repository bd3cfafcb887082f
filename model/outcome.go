package model

import "fmt"

// Horizon is a forward holding period in calendar days.
type Horizon int

const (
	H7  Horizon = 7
	H14 Horizon = 14
	H30 Horizon = 30
	H45 Horizon = 45
	H60 Horizon = 60
	H90 Horizon = 90
)

// AllHorizons are computed for every successful outcome.
var AllHorizons = []Horizon{H7, H14, H30, H45, H60, H90}

// ReportHorizons are the horizons summarized by reports and views.
var ReportHorizons = []Horizon{H7, H30, H90}

// Key returns the short form used in field names, e.g. "30d".
func (h Horizon) Key() string {
	return fmt.Sprintf("%dd", int(h))
}

// Days returns the horizon length.
func (h Horizon) Days() int {
	return int(h)
}

// ParseHorizon accepts "30d" or "30".
func ParseHorizon(s string) (Horizon, error) {
	for _, h := range AllHorizons {
		if s == h.Key() || s == fmt.Sprintf("%d", int(h)) {
			return h, nil
		}
	}
	return 0, fmt.Errorf("unknown horizon: %q", s)
}

type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

// Failure reasons recorded on failed outcomes.
const (
	ReasonMissingSymbol  = "Missing Symbol"
	ReasonSymbolNotFound = "Symbol Not Found"
	ReasonInvalidDate    = "Invalid Date"
	ReasonNoData         = "No Data"
	ReasonNoEntryData    = "No Entry Data"
	ReasonLookupError    = "Lookup Error"
)

// TradeOutcome is the realized forward performance of one signal. It is
// created once by the runner and treated as read-only afterwards.
type TradeOutcome struct {
	Symbol     string   `json:"symbol"`
	SignalDate string   `json:"signal_date"`
	EntryDate  string   `json:"entry_date,omitempty"`
	Status     Status   `json:"status"`
	Reason     string   `json:"reason,omitempty"`
	EntryPrice *float64 `json:"entry_price"`

	Return7d     *float64 `json:"return_7d"`
	ExitPrice7d  *float64 `json:"exit_price_7d"`
	Return14d    *float64 `json:"return_14d"`
	ExitPrice14d *float64 `json:"exit_price_14d"`
	Return30d    *float64 `json:"return_30d"`
	ExitPrice30d *float64 `json:"exit_price_30d"`
	Return45d    *float64 `json:"return_45d"`
	ExitPrice45d *float64 `json:"exit_price_45d"`
	Return60d    *float64 `json:"return_60d"`
	ExitPrice60d *float64 `json:"exit_price_60d"`
	Return90d    *float64 `json:"return_90d"`
	ExitPrice90d *float64 `json:"exit_price_90d"`

	MaxHigh90d  *float64 `json:"max_high_90d"`
	MaxHighDate *string  `json:"max_high_date"`
	MaxLow90d   *float64 `json:"max_low_90d"`
	MaxLowDate  *string  `json:"max_low_date"`
}

// Failed builds an outcome for a signal whose lookup failed.
func Failed(symbol, signalDate, reason string) TradeOutcome {
	return TradeOutcome{
		Symbol:     symbol,
		SignalDate: signalDate,
		Status:     StatusFailed,
		Reason:     reason,
	}
}

func (t *TradeOutcome) IsSuccess() bool {
	return t.Status == StatusSuccess
}

// Return returns the forward return for h, or nil when unresolved.
func (t *TradeOutcome) Return(h Horizon) *float64 {
	switch h {
	case H7:
		return t.Return7d
	case H14:
		return t.Return14d
	case H30:
		return t.Return30d
	case H45:
		return t.Return45d
	case H60:
		return t.Return60d
	case H90:
		return t.Return90d
	}
	return nil
}

// ExitPrice returns the exit close for h, or nil when unresolved.
func (t *TradeOutcome) ExitPrice(h Horizon) *float64 {
	switch h {
	case H7:
		return t.ExitPrice7d
	case H14:
		return t.ExitPrice14d
	case H30:
		return t.ExitPrice30d
	case H45:
		return t.ExitPrice45d
	case H60:
		return t.ExitPrice60d
	case H90:
		return t.ExitPrice90d
	}
	return nil
}

// SetHorizon records the exit price and return for h. Only the runner calls
// it, while the outcome is still being built.
func (t *TradeOutcome) SetHorizon(h Horizon, exitPrice, ret float64) {
	p, r := &exitPrice, &ret
	switch h {
	case H7:
		t.ExitPrice7d, t.Return7d = p, r
	case H14:
		t.ExitPrice14d, t.Return14d = p, r
	case H30:
		t.ExitPrice30d, t.Return30d = p, r
	case H45:
		t.ExitPrice45d, t.Return45d = p, r
	case H60:
		t.ExitPrice60d, t.Return60d = p, r
	case H90:
		t.ExitPrice90d, t.Return90d = p, r
	}
}
