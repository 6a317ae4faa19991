// Package sink holds the consumers of manager events.
package sink

import (
	"context"
	"debate-lab/contract"
	"debate-lab/domain/event"
	"errors"
	"log/slog"
	"time"
)

// Fanout delivers each event to every sink, in order, on the caller's goroutine.
//
// It is best effort: a failing or slow sink is logged and skipped, it never
// blocks the protocol for longer than the per-sink timeout, provided the sink
// honours its context.
type Fanout struct {
	log     *slog.Logger
	timeout time.Duration
	sinks   []contract.EventSink
}

func NewFanout(log *slog.Logger, timeout time.Duration, sinks ...contract.EventSink) *Fanout {
	return &Fanout{log: log, timeout: timeout, sinks: sinks}
}

func (f *Fanout) Add(sinks ...contract.EventSink) *Fanout {
	f.sinks = append(f.sinks, sinks...)
	return f
}

func (f *Fanout) Consume(ctx context.Context, e event.Event) error {
	var errs []error
	for _, s := range f.sinks {
		if err := f.consume(ctx, s, e); err != nil {
			f.log.Warn("Sink failed", "type", e.Type, "sink", contract.GetSinkName(s), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) consume(ctx context.Context, s contract.EventSink, e event.Event) error {
	if f.timeout <= 0 {
		return s.Consume(ctx, e)
	}
	sinkCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return s.Consume(sinkCtx, e)
}
