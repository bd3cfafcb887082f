package tradelog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"screener/model"
	"screener/trading"
)

var (
	ErrUnknownSortKey   = errors.New("unknown sort key")
	ErrInvalidDirection = errors.New("invalid sort direction")
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortState is the caller-owned sort selection of a trade table.
type SortState struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// DefaultSort shows the best 30 day performers first.
var DefaultSort = SortState{Key: "return_30d", Direction: Desc}

// Toggle applies a click on a column: the same key flips the direction, a
// new key starts ascending.
func (s SortState) Toggle(key string) SortState {
	if key == s.Key {
		if s.Direction == Asc {
			return SortState{Key: key, Direction: Desc}
		}
		return SortState{Key: key, Direction: Asc}
	}
	return SortState{Key: key, Direction: Asc}
}

func (s SortState) validate() error {
	if _, ok := extractors[s.Key]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSortKey, s.Key)
	}
	if s.Direction != Asc && s.Direction != Desc {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, s.Direction)
	}
	return nil
}

type kind int

const (
	kindNum kind = iota
	kindText
	kindDate
)

// value is one sortable cell. null cells always rank last.
type value struct {
	null bool
	num  float64
	text string
	date time.Time
}

type extractor struct {
	kind kind
	get  func(t *model.TradeOutcome) value
}

func num(p *float64) value {
	if p == nil {
		return value{null: true}
	}
	return value{num: *p}
}

func text(s string) value {
	if s == "" {
		return value{null: true}
	}
	return value{text: strings.ToLower(s)}
}

func date(s string) value {
	t, err := trading.ParseDate(s)
	if err != nil {
		return value{null: true}
	}
	return value{date: t}
}

func datePtr(p *string) value {
	if p == nil {
		return value{null: true}
	}
	return date(*p)
}

var extractors = map[string]extractor{
	"symbol":        {kindText, func(t *model.TradeOutcome) value { return text(t.Symbol) }},
	"status":        {kindText, func(t *model.TradeOutcome) value { return text(string(t.Status)) }},
	"reason":        {kindText, func(t *model.TradeOutcome) value { return text(t.Reason) }},
	"signal_date":   {kindDate, func(t *model.TradeOutcome) value { return date(t.SignalDate) }},
	"entry_date":    {kindDate, func(t *model.TradeOutcome) value { return date(t.EntryDate) }},
	"entry_price":   {kindNum, func(t *model.TradeOutcome) value { return num(t.EntryPrice) }},
	"max_high_90d":  {kindNum, func(t *model.TradeOutcome) value { return num(t.MaxHigh90d) }},
	"max_high_date": {kindDate, func(t *model.TradeOutcome) value { return datePtr(t.MaxHighDate) }},
	"max_low_90d":   {kindNum, func(t *model.TradeOutcome) value { return num(t.MaxLow90d) }},
	"max_low_date":  {kindDate, func(t *model.TradeOutcome) value { return datePtr(t.MaxLowDate) }},
}

func init() {
	for _, h := range model.AllHorizons {
		h := h // per-iteration copy; go.mod targets go1.21 (pre-1.22 loop semantics)
		extractors["return_"+h.Key()] = extractor{kindNum, func(t *model.TradeOutcome) value { return num(t.Return(h)) }}
		extractors["exit_price_"+h.Key()] = extractor{kindNum, func(t *model.TradeOutcome) value { return num(t.ExitPrice(h)) }}
	}
}

// IsSortKey reports whether key can be used in a SortState.
func IsSortKey(key string) bool {
	_, ok := extractors[key]
	return ok
}

func compare(k kind, a, b value) int {
	switch k {
	case kindNum:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	case kindDate:
		return a.date.Compare(b.date)
	default:
		return strings.Compare(a.text, b.text)
	}
}
