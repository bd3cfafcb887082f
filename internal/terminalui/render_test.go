package terminalui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screener/analytics"
	"screener/model"
)

func f64(v float64) *float64 { return &v }

func sampleView(t *testing.T) analytics.View {
	t.Helper()
	rep := &model.Report{
		TotalSignals: 2, SuccessfulSignals: 1, FailedSignals: 1,
		Trades: []model.TradeOutcome{
			{Symbol: "INFY.NS", SignalDate: "2024-01-08", EntryDate: "2024-01-08", Status: model.StatusSuccess,
				EntryPrice: f64(1500), Return7d: f64(2.5), Return30d: f64(-1.25)},
			model.Failed("ZZZ", "2024-01-08", model.ReasonSymbolNotFound),
		},
	}
	rep.BestPerformer = &rep.Trades[0]
	rep.WorstPerformer = &rep.Trades[0]

	p := analytics.DefaultViewParams()
	p.IncludeFailed = true
	v, err := analytics.BuildView(rep, p)
	require.NoError(t, err)
	return v
}

func TestRenderPlain(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, sampleView(t), Options{})
	out := buf.String()

	assert.Contains(t, out, "Signals: 2   Successful: 1   Failed: 1")
	assert.Contains(t, out, "INFY.NS")
	assert.Contains(t, out, "Symbol Not Found")
	assert.Contains(t, out, "90d       no data")
	assert.Contains(t, out, "7d: 1")
	assert.NotContains(t, out, "\033[")

	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.True(t, strings.HasSuffix(line, "║") || strings.HasSuffix(line, "╗") ||
			strings.HasSuffix(line, "╣") || strings.HasSuffix(line, "╢") || strings.HasSuffix(line, "╝"), line)
	}
}

func TestRenderColor(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, sampleView(t), Options{Color: true})
	assert.Contains(t, buf.String(), "\033[32m")
	assert.Contains(t, buf.String(), "\033[31m")
}

func TestVisibleLen(t *testing.T) {
	assert.Equal(t, 3, visibleLen("\033[32mabc\033[0m"))
	assert.Equal(t, 4, visibleLen("【a】"))
}
