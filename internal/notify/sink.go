package notify

import (
	"context"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
)

// Outcome is the result of one send attempt.
type Outcome struct {
	Kind       Kind
	To         string
	IntendedTo string
	EntryID    string
	TestMode   bool
	Err        error
	Duration   time.Duration
}

func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

func (o Outcome) Status() string {
	if o.Err != nil {
		return "failed"
	}
	return "sent"
}

// OutcomeSink observes every send. Implementations must be safe for concurrent use.
type OutcomeSink interface {
	Record(ctx context.Context, outcome Outcome)
}

type SinkFunc func(ctx context.Context, outcome Outcome)

func (f SinkFunc) Record(ctx context.Context, outcome Outcome) {
	f(ctx, outcome)
}

type MultiSink []OutcomeSink

func (m MultiSink) Record(ctx context.Context, outcome Outcome) {
	for _, sink := range m {
		if sink != nil {
			sink.Record(ctx, outcome)
		}
	}
}

// LogSink writes one structured line per send, tagged with the request's correlation id.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(ctx context.Context, outcome Outcome) {
	logger := log.FromContext(ctx, s.logger)

	args := []any{
		"kind", string(outcome.Kind),
		"to", outcome.To,
		"intended_to", outcome.IntendedTo,
		"entry_id", outcome.EntryID,
		"test_mode", outcome.TestMode,
		"duration_ms", outcome.Duration.Milliseconds(),
	}

	if outcome.Err != nil {
		logger.Error("Notification delivery failed", append(args, "error", outcome.Err.Error())...)
		return
	}

	logger.Info("Notification delivered", args...)
}
