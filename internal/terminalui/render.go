package terminalui

import (
	"fmt"
	"io"
	"strings"

	"screener/analytics"
	"screener/model"
)

const width = 76

// Options controls terminal output.
type Options struct {
	Color bool
}

// Render writes a boxed dashboard of v to w.
func Render(w io.Writer, v analytics.View, opt Options) {
	p := &printer{w: w, color: opt.Color}

	p.rule("╔", "═", "╗")
	p.line(center("Signal Backtest Report", width-2))
	p.rule("╠", "═", "╣")
	s := v.Summary
	p.line(fmt.Sprintf("  Signals: %d   Successful: %d   Failed: %d", s.TotalSignals, s.SuccessfulSignals, s.FailedSignals))
	if s.BestPerformer != nil {
		p.line("  Best 30d:  " + performer(s.BestPerformer))
		p.line("  Worst 30d: " + performer(s.WorstPerformer))
	}

	p.rule("╠", "═", "╣")
	p.line("  【Horizon stats】")
	p.line("  Horizon   Count      Avg   Median  Highest   Lowest  Win/Loss   Capital P&L")
	p.rule("╟", "─", "╢")
	for _, h := range model.ReportHorizons {
		st := v.StatsFor(h)
		if st == nil {
			p.line(fmt.Sprintf("  %-7s   %s", h.Key(), "no data"))
			continue
		}
		p.line(fmt.Sprintf("  %-7s %7d %s %s %s %s  %3d/%-3d  %s",
			st.Horizon, st.Count,
			p.pct(st.Avg, 8), p.pct(st.Median, 8), p.pct(st.Highest, 8), p.pct(st.Lowest, 8),
			st.Positive.Count, st.Negative.Count,
			p.money(st.CapitalReturn.StringFixed(2), st.Avg, 12)))
	}

	p.rule("╠", "═", "╣")
	p.line("  【Top performers】")
	p.rule("╟", "─", "╢")
	for _, r := range v.TopPerformers {
		names := make([]string, 0, len(r.Trades))
		for i := range r.Trades {
			t := &r.Trades[i]
			names = append(names, fmt.Sprintf("%s %+.2f%%", truncateName(t.Symbol, 12), deref(t.Return(horizonOf(r.Horizon)))))
		}
		if len(names) == 0 {
			names = append(names, "-")
		}
		p.line(fmt.Sprintf("  %-4s %-8s %s", r.Horizon, r.Direction, strings.Join(names, ", ")))
	}

	p.rule("╠", "═", "╣")
	p.line("  【Best horizon】")
	p.rule("╟", "─", "╢")
	var parts []string
	for _, b := range v.Distribution {
		parts = append(parts, fmt.Sprintf("%s: %d", b.Horizon, b.Count))
	}
	p.line("  " + strings.Join(parts, "   "))

	p.rule("╠", "═", "╣")
	p.line(fmt.Sprintf("  【Trades】 page %d/%d, %d matching", v.Page.Page, max(1, v.TotalPages), v.TotalFiltered))
	p.line("  Symbol        Signal      Entry       Price      7d      30d      90d")
	p.rule("╟", "─", "╢")
	for i := range v.Trades {
		t := &v.Trades[i]
		if !t.IsSuccess() {
			p.line(fmt.Sprintf("  %-12s  %-10s  %s", truncateName(t.Symbol, 12), truncateName(t.SignalDate, 10), t.Reason))
			continue
		}
		p.line(fmt.Sprintf("  %-12s  %-10s  %-10s %7.2f %s %s %s",
			truncateName(t.Symbol, 12), t.SignalDate, t.EntryDate, deref(t.EntryPrice),
			p.pctPtr(t.Return7d, 8), p.pctPtr(t.Return30d, 8), p.pctPtr(t.Return90d, 8)))
	}
	p.rule("╚", "═", "╝")
}

type printer struct {
	w     io.Writer
	color bool
}

func (p *printer) rule(l, mid, r string) {
	fmt.Fprintln(p.w, l+strings.Repeat(mid, width-2)+r)
}

// line pads s to the box width; visible width ignores color escapes.
func (p *printer) line(s string) {
	pad := width - 2 - visibleLen(s)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintln(p.w, "║"+s+strings.Repeat(" ", pad)+"║")
}

func (p *printer) pct(v float64, w int) string {
	s := fmt.Sprintf("%+*.2f%%", w-1, v)
	return p.paint(s, v)
}

func (p *printer) pctPtr(v *float64, w int) string {
	if v == nil {
		return fmt.Sprintf("%*s", w, "-")
	}
	return p.pct(*v, w)
}

func (p *printer) money(s string, sign float64, w int) string {
	return p.paint(fmt.Sprintf("%*s", w, s), sign)
}

func (p *printer) paint(s string, v float64) string {
	if !p.color {
		return s
	}
	return colorByChange(v) + s + "\033[0m"
}

func colorByChange(change float64) string {
	if change > 0 {
		return "\033[32m"
	}
	if change < 0 {
		return "\033[31m"
	}
	return "\033[37m"
}

func performer(t *model.TradeOutcome) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%s %+.2f%% (entry %s)", t.Symbol, deref(t.Return30d), t.EntryDate)
}

func horizonOf(key string) model.Horizon {
	h, err := model.ParseHorizon(key)
	if err != nil {
		return 0
	}
	return h
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func truncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return name
}

func center(s string, w int) string {
	n := visibleLen(s)
	if n >= w {
		return s
	}
	left := (w - n) / 2
	return strings.Repeat(" ", left) + s
}

func visibleLen(s string) int {
	n := 0
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEsc = true
		case inEsc:
			if r == 'm' {
				inEsc = false
			}
		case r == '【' || r == '】':
			n += 2
		default:
			n++
		}
	}
	return n
}
