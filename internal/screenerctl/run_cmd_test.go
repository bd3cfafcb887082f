package screenerctl

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"screener/backtest"
	"screener/fetcher"
	"screener/model"
)

// emptySource knows no symbols.
type emptySource struct{}

func (emptySource) FetchDailyKLine(context.Context, string, time.Time, time.Time) ([]fetcher.KLine, error) {
	return nil, fetcher.ErrNotFound
}

func (emptySource) LatestPrice(context.Context, string) (float64, error) {
	return 0, fetcher.ErrNotFound
}

func (emptySource) Ping(context.Context) error { return nil }

func TestStreamRunPrintsProgress(t *testing.T) {
	runner := backtest.NewRunner(emptySource{}, backtest.Options{Suffixes: fetcher.DefaultSuffixes}, zap.NewNop())
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	var progress bytes.Buffer
	rep, err := streamRun(cmd, runner, []byte("Symbol,Date\nAAA,2024-01-08\nBBB,2024-01-09\n"), &progress)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.TotalSignals)
	assert.Equal(t, 2, rep.FailedSignals)
	assert.Equal(t, model.ReasonSymbolNotFound, rep.Trades[0].Reason)
	assert.Contains(t, progress.String(), "[2/2] BBB")
}

func TestStreamRunParseError(t *testing.T) {
	runner := backtest.NewRunner(emptySource{}, backtest.Options{Suffixes: fetcher.DefaultSuffixes}, zap.NewNop())
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	_, err := streamRun(cmd, runner, []byte("Symbol,Date\n"), &bytes.Buffer{})
	assert.Error(t, err)
}
