package trading

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format used across reports.
const DateLayout = "2006-01-02"

// Accepted signal date layouts, tried in order. Day-first layouts win over
// month-first ones for ambiguous input such as 03/04/2024.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-Jan-06",
	"02-Jan-2006",
}

// ParseDate parses a signal date in any of the accepted layouts and returns
// it as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	// Spreadsheet exports often carry a time part: "2024-01-05 00:00:00".
	if i := strings.IndexAny(v, " T"); i == 10 {
		v = v[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse date: %s", s)
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t with DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Calendar indexes the trading days present in a daily price series. A day
// missing from the series is treated as a holiday or weekend.
type Calendar struct {
	index map[string]int
}

// NewCalendar builds a calendar from the series dates; days[i] maps to index i.
func NewCalendar(days []time.Time) *Calendar {
	c := &Calendar{index: make(map[string]int, len(days))}
	for i, d := range days {
		k := FormatDate(Day(d))
		if _, ok := c.index[k]; !ok {
			c.index[k] = i
		}
	}
	return c
}

// NextTradingDay returns the series index of the first trading day in
// [from, from+lookahead days].
func (c *Calendar) NextTradingDay(from time.Time, lookahead int) (int, bool) {
	if c == nil {
		return 0, false
	}
	day := Day(from)
	for i := 0; i <= lookahead; i++ {
		if idx, ok := c.index[FormatDate(day.AddDate(0, 0, i))]; ok {
			return idx, true
		}
	}
	return 0, false
}

// Len returns the number of distinct trading days.
func (c *Calendar) Len() int {
	if c == nil {
		return 0
	}
	return len(c.index)
}
