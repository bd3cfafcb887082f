package backtest

import (
	"errors"
	"time"
)

// ErrSourceUnavailable means the price source failed its preflight check and
// no signal was processed.
var ErrSourceUnavailable = errors.New("price source unavailable")

// Bar is one daily bar of a signal's history window.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Options tunes how outcomes are measured.
type Options struct {
	// Suffixes are exchange suffixes tried when resolving a bare symbol.
	// Empty means symbols are used as written.
	Suffixes []string
	// LookaheadDays is how far past a target day the next trading day may be.
	LookaheadDays int
	// FetchWindowDays is the history fetched after the signal date.
	FetchWindowDays int
	// ExtremaWindowDays bounds the max high / min low search after entry.
	ExtremaWindowDays int
	// Preflight pings the source once before processing any signal.
	Preflight bool
}

func (o Options) withDefaults() Options {
	if o.LookaheadDays <= 0 {
		o.LookaheadDays = 5
	}
	if o.FetchWindowDays <= 0 {
		o.FetchWindowDays = 100
	}
	if o.ExtremaWindowDays <= 0 {
		o.ExtremaWindowDays = 90
	}
	return o
}

// MessageType tags stream messages.
type MessageType string

const (
	MessageProgress MessageType = "progress"
	MessageComplete MessageType = "complete"
	MessageError    MessageType = "error"
)
