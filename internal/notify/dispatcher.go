package notify

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/models"
)

// Notifier is what the waitlist service depends on.
type Notifier interface {
	// Dispatch starts the signup fan-out and returns immediately.
	Dispatch(ctx context.Context, entry *models.WaitlistEntry)
}

// Dispatcher sends the welcome and operator alert for each new entry. Delivery failures are
// reported to the sink and never returned to callers.
type Dispatcher struct {
	cfg       Config
	transport Transport
	sink      OutcomeSink
	logger    *log.Logger

	wg sync.WaitGroup
}

// NewDispatcher validates cfg. A LogSink is always attached in addition to sinks.
func NewDispatcher(cfg Config, transport Transport, logger *log.Logger, sinks ...OutcomeSink) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, errors.New("notify: transport is required")
	}
	if logger == nil {
		logger = log.NewLoggerWithJSONOutput()
	}

	all := make(MultiSink, 0, len(sinks)+1)
	all = append(all, NewLogSink(logger))
	all = append(all, sinks...)

	return &Dispatcher{
		cfg:       cfg,
		transport: transport,
		sink:      all,
		logger:    logger,
	}, nil
}

func (d *Dispatcher) Config() Config {
	return d.cfg
}

// Notify sends both notifications and returns their outcomes in order (welcome, alert).
func (d *Dispatcher) Notify(ctx context.Context, entry *models.WaitlistEntry) []Outcome {
	if entry == nil {
		return nil
	}

	dest := d.cfg.Destinations(entry.Email)
	messages := []Message{
		NewWelcomeMessage(d.cfg, entry, dest.Welcome),
		NewAlertMessage(d.cfg, entry, dest.Alert),
	}

	outcomes := make([]Outcome, 0, len(messages))
	for _, msg := range messages {
		outcomes = append(outcomes, d.send(ctx, entry.ID, msg))
	}

	return outcomes
}

func (d *Dispatcher) send(ctx context.Context, entryID string, msg Message) Outcome {
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	start := time.Now()
	err := d.safeSend(sendCtx, msg)

	outcome := Outcome{
		Kind:       msg.Kind,
		To:         msg.To,
		IntendedTo: msg.IntendedTo,
		EntryID:    entryID,
		TestMode:   d.cfg.TestMode,
		Err:        err,
		Duration:   time.Since(start),
	}
	d.sink.Record(ctx, outcome)

	return outcome
}

func (d *Dispatcher) safeSend(ctx context.Context, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notify: transport panicked: %v", r)
		}
	}()

	return d.transport.Send(ctx, msg)
}

// Dispatch runs Notify on its own goroutine. The caller's cancellation does not reach the
// sends; its values (logger, correlation id) do.
func (d *Dispatcher) Dispatch(ctx context.Context, entry *models.WaitlistEntry) {
	if entry == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	snapshot := *entry
	snapshot.Preferences = slices.Clone(entry.Preferences)
	detached := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.FromContext(detached, d.logger).Error("Notification dispatch panicked", "entry_id", snapshot.ID, "panic", fmt.Sprint(r))
			}
		}()

		d.Notify(detached, &snapshot)
	}()
}

// Wait blocks until every dispatched fan-out has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TransportHealthy reports the transport's own health when it exposes one.
func (d *Dispatcher) TransportHealthy() bool {
	if h, ok := d.transport.(interface{ Healthy() bool }); ok {
		return h.Healthy()
	}
	return true
}
