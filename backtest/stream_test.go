package backtest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screener/model"
	"screener/signalfile"
)

const threeSignals = "symbol,date\nAAA,2024-01-08\nBBB,2024-01-08\nCCC,2024-01-09\n"

func collect(t *testing.T, ch <-chan Message) []Message {
	t.Helper()
	var out []Message
	timeout := time.After(5 * time.Second)
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, m)
		case <-timeout:
			t.Fatal("stream did not close")
			return out
		}
	}
}

func TestStreamEndToEnd(t *testing.T) {
	r := NewRunner(newFake(), Options{}, nil)
	msgs := collect(t, r.Stream(context.Background(), []byte(threeSignals)))

	require.Len(t, msgs, 5)
	want := []model.ProgressEvent{
		{Current: 0, Total: 3, Symbol: model.ProgressStarting},
		{Current: 1, Total: 3, Symbol: "AAA"},
		{Current: 2, Total: 3, Symbol: "BBB"},
		{Current: 3, Total: 3, Symbol: "CCC"},
	}
	for i, w := range want {
		assert.Equal(t, MessageProgress, msgs[i].Type)
		assert.Equal(t, w, msgs[i].Progress())
	}

	last := msgs[4]
	require.Equal(t, MessageComplete, last.Type)
	rep := last.Report
	require.NotNil(t, rep)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, 3, rep.TotalSignals)
	assert.Equal(t, 2, rep.SuccessfulSignals)
	assert.Equal(t, 1, rep.FailedSignals)
	require.Len(t, rep.Trades, 3)
	assert.Equal(t, "AAA", rep.Trades[0].Symbol)
	assert.Equal(t, model.StatusFailed, rep.Trades[1].Status)
	assert.Nil(t, rep.Trades[1].EntryPrice)
	assert.Equal(t, "CCC", rep.Trades[2].Symbol)
}

func TestRunMatchesStream(t *testing.T) {
	r := NewRunner(newFake(), Options{}, nil)
	rep, err := r.Run(context.Background(), []byte(threeSignals))
	require.NoError(t, err)

	msgs := collect(t, r.Stream(context.Background(), []byte(threeSignals)))
	streamed := msgs[len(msgs)-1].Report

	rep.RunID, streamed.RunID = "", ""
	assert.Equal(t, rep, streamed)
}

func TestStreamParseError(t *testing.T) {
	r := NewRunner(newFake(), Options{}, nil)
	msgs := collect(t, r.Stream(context.Background(), []byte("price,qty\n1,2\n")))

	require.Len(t, msgs, 1)
	assert.Equal(t, MessageError, msgs[0].Type)
	assert.NotEmpty(t, msgs[0].Message)

	_, err := r.Run(context.Background(), []byte("price,qty\n1,2\n"))
	assert.True(t, errors.Is(err, signalfile.ErrParse))
}

func TestPreflightUnavailable(t *testing.T) {
	src := newFake()
	src.pingErr = errors.New("dial tcp: connection refused")
	r := NewRunner(src, Options{Preflight: true}, nil)

	_, err := r.Run(context.Background(), []byte(threeSignals))
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
	assert.Zero(t, src.fetches)

	msgs := collect(t, r.Stream(context.Background(), []byte(threeSignals)))
	require.Len(t, msgs, 1)
	assert.Equal(t, MessageError, msgs[0].Type)
}

func TestStreamCancel(t *testing.T) {
	src := newFake()
	src.block = true
	src.entered = make(chan struct{}, 1)
	r := NewRunner(src, Options{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := r.Stream(ctx, []byte(threeSignals))

	select {
	case <-src.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first lookup never started")
	}
	cancel()

	msgs := collect(t, ch)
	require.NotEmpty(t, msgs)
	for _, m := range msgs {
		assert.Equal(t, MessageProgress, m.Type, "no terminal message after cancel")
		assert.Zero(t, m.Current, "a signal still in flight is not reported as processed")
	}
	assert.Equal(t, 1, src.fetches)
}

func TestProgressFollowsEvaluation(t *testing.T) {
	src := newFake()
	r := NewRunner(src, Options{}, nil)

	var seen []int
	_, err := r.execute(context.Background(), []byte(threeSignals), func(m Message) {
		src.mu.Lock()
		defer src.mu.Unlock()
		assert.Equal(t, m.Current, src.fetches, "progress %d sent after %d lookups", m.Current, src.fetches)
		seen = append(seen, m.Current)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, seen)
}

// gatedSource holds the first LatestPrice call until release is closed.
type gatedSource struct {
	*fakeSource
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSource) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return g.fakeSource.LatestPrice(ctx, symbol)
}

func TestConcurrentRunsIsolatedFromCancel(t *testing.T) {
	fake := newFake()
	fake.series["AAA.NS"] = fake.series["AAA"]
	fake.series["CCC.NS"] = fake.series["CCC"]
	fake.prices = map[string]float64{"AAA.NS": 150, "CCC.NS": 90}
	src := &gatedSource{fakeSource: fake, entered: make(chan struct{}), release: make(chan struct{})}
	r := NewRunner(src, Options{Suffixes: []string{".NS"}}, nil)

	payload := []byte("symbol,date\nAAA,2024-01-08\nCCC,2024-01-09\n")

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	runA := r.Stream(ctxA, payload)
	<-src.entered

	runB := r.Stream(context.Background(), payload)
	time.Sleep(50 * time.Millisecond)
	cancelA()
	for m := range runA {
		assert.Equal(t, MessageProgress, m.Type)
	}
	close(src.release)

	msgs := collect(t, runB)
	last := msgs[len(msgs)-1]
	require.Equal(t, MessageComplete, last.Type)
	rep := last.Report
	assert.Equal(t, 2, rep.SuccessfulSignals)
	assert.Zero(t, rep.FailedSignals)
	assert.Equal(t, "AAA.NS", rep.Trades[0].Symbol)
	assert.Equal(t, "CCC.NS", rep.Trades[1].Symbol)

	solo, err := NewRunner(fake, Options{Suffixes: []string{".NS"}}, nil).Run(context.Background(), payload)
	require.NoError(t, err)
	rep.RunID, solo.RunID = "", ""
	assert.Equal(t, solo, rep)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(newFake(), Options{}, nil)
	_, err := r.Run(ctx, []byte(threeSignals))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMessageWireShape(t *testing.T) {
	data, err := json.Marshal(Message{Type: MessageProgress, Current: 0, Total: 3, Symbol: model.ProgressStarting})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"progress","current":0,"total":3,"symbol":"Initializing..."}`, string(data))

	data, err = json.Marshal(Message{Type: MessageError, Message: "bad file"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","message":"bad file"}`, string(data))

	var back Message
	require.NoError(t, json.Unmarshal([]byte(`{"type":"complete","report":{"total_signals":2,"trades":[]}}`), &back))
	assert.Equal(t, MessageComplete, back.Type)
	require.NotNil(t, back.Report)
	assert.Equal(t, 2, back.Report.TotalSignals)
}
