package backtest

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"screener/model"
	"screener/signalfile"
)

// Message is one item of a run's progress stream.
type Message struct {
	Type    MessageType
	Current int
	Total   int
	Symbol  string
	Report  *model.Report
	Message string
}

// MarshalJSON renders the wire shape for each message type.
func (m Message) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case MessageProgress:
		return json.Marshal(struct {
			Type    MessageType `json:"type"`
			Current int         `json:"current"`
			Total   int         `json:"total"`
			Symbol  string      `json:"symbol"`
		}{m.Type, m.Current, m.Total, m.Symbol})
	case MessageComplete:
		return json.Marshal(struct {
			Type   MessageType   `json:"type"`
			Report *model.Report `json:"report"`
		}{m.Type, m.Report})
	default:
		return json.Marshal(struct {
			Type    MessageType `json:"type"`
			Message string      `json:"message"`
		}{m.Type, m.Message})
	}
}

// UnmarshalJSON accepts any of the wire shapes.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w struct {
		Type    MessageType   `json:"type"`
		Current int           `json:"current"`
		Total   int           `json:"total"`
		Symbol  string        `json:"symbol"`
		Report  *model.Report `json:"report"`
		Message string        `json:"message"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Message{Type: w.Type, Current: w.Current, Total: w.Total, Symbol: w.Symbol, Report: w.Report, Message: w.Message}
	return nil
}

// Progress returns the event carried by a progress message.
func (m Message) Progress() model.ProgressEvent {
	return model.ProgressEvent{Current: m.Current, Total: m.Total, Symbol: m.Symbol}
}

// Run processes payload and returns the report without progress reporting.
func (r *Runner) Run(ctx context.Context, payload []byte) (*model.Report, error) {
	return r.execute(ctx, payload, func(Message) {})
}

// Stream processes payload in a goroutine. The channel yields progress
// messages in order followed by exactly one complete or error message, then
// closes. If ctx is cancelled the channel closes without a final message.
func (r *Runner) Stream(ctx context.Context, payload []byte) <-chan Message {
	ch := make(chan Message, 16)
	go func() {
		defer close(ch)
		send := func(m Message) bool {
			select {
			case ch <- m:
				return true
			case <-ctx.Done():
				return false
			}
		}

		rep, err := r.execute(ctx, payload, func(m Message) { send(m) })
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			send(Message{Type: MessageError, Message: err.Error()})
			return
		}
		send(Message{Type: MessageComplete, Report: rep})
	}()
	return ch
}

func (r *Runner) execute(ctx context.Context, payload []byte, emit func(Message)) (*model.Report, error) {
	runID := uuid.NewString()
	log := r.log.With(zap.String("run_id", runID))
	started := time.Now()

	signals, err := signalfile.Parse(payload)
	if err != nil {
		log.Info("rejected upload", zap.Error(err))
		return nil, err
	}
	if err := r.preflight(ctx); err != nil {
		log.Warn("preflight failed", zap.Error(err))
		return nil, err
	}

	total := len(signals)
	log.Info("run started", zap.Int("signals", total))
	emit(Message{Type: MessageProgress, Current: 0, Total: total, Symbol: model.ProgressStarting})

	trades := make([]model.TradeOutcome, 0, total)
	for i, sig := range signals {
		if err := ctx.Err(); err != nil {
			log.Info("run cancelled", zap.Int("processed", i))
			return nil, err
		}
		out := r.evaluate(ctx, sig, log)
		if err := ctx.Err(); err != nil {
			log.Info("run cancelled", zap.Int("processed", i))
			return nil, err
		}
		trades = append(trades, out)

		label := strings.TrimSpace(sig.Symbol)
		if label == "" {
			label = "Unknown"
		}
		emit(Message{Type: MessageProgress, Current: len(trades), Total: total, Symbol: label})
	}

	rep := BuildReport(trades)
	rep.RunID = runID
	log.Info("run finished",
		zap.Int("successful", rep.SuccessfulSignals),
		zap.Int("failed", rep.FailedSignals),
		zap.Duration("elapsed", time.Since(started)))
	return rep, nil
}
