package telemetry

import (
	"context"
	"errors"

	"go.trai.ch/devshell/internal/core/ports"
)

// Fanout forwards every span to several tracers.
type Fanout struct {
	tracers []ports.Tracer
}

var _ ports.Tracer = (*Fanout)(nil)

// NewFanout creates a tracer that records to each of tracers in order.
func NewFanout(tracers ...ports.Tracer) *Fanout {
	return &Fanout{tracers: tracers}
}

// Start starts a span on every tracer, threading the context through them.
func (f *Fanout) Start(ctx context.Context, name string) (context.Context, ports.Span) {
	spans := make(fanoutSpan, 0, len(f.tracers))
	for _, t := range f.tracers {
		var span ports.Span
		ctx, span = t.Start(ctx, name)
		spans = append(spans, span)
	}
	return ctx, spans
}

// Close closes every tracer and returns the joined errors.
func (f *Fanout) Close() error {
	var errs []error
	for _, t := range f.tracers {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type fanoutSpan []ports.Span

func (s fanoutSpan) End() {
	for _, span := range s {
		span.End()
	}
}

func (s fanoutSpan) RecordError(err error) {
	for _, span := range s {
		span.RecordError(err)
	}
}

func (s fanoutSpan) SetAttribute(key string, value any) {
	for _, span := range s {
		span.SetAttribute(key, value)
	}
}

func (s fanoutSpan) Write(p []byte) (int, error) {
	for _, span := range s {
		if _, err := span.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
