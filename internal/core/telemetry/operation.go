package telemetry

import (
	"context"
	"time"

	"simpletodo/internal/core/port"
)

// Operation measures one repository call and closes its span.
type Operation struct {
	probe     port.Telemetry
	ctx       context.Context
	span      port.Span
	startTime time.Time
	operation string
	entity    string
}

// StartOperation opens a repository span and starts the clock. The returned
// context carries the span.
func StartOperation(ctx context.Context, probe port.Telemetry, operation, entity string, attrs map[string]interface{}) (context.Context, *Operation) {
	if probe == nil {
		probe = NewNoOpProbe()
	}

	ctx, span := probe.StartRepositorySpan(ctx, operation, entity, attrs)

	return ctx, &Operation{
		probe:     probe,
		ctx:       ctx,
		span:      span,
		startTime: time.Now(),
		operation: operation,
		entity:    entity,
	}
}

func (op *Operation) Span() port.Span {
	return op.span
}

func (op *Operation) Query(query string, args []interface{}) {
	op.probe.RecordRepositoryQuery(op.ctx, op.operation, op.entity, query, args)
}

// End records the outcome and ends the span. Call it exactly once.
func (op *Operation) End(err error) {
	duration := time.Since(op.startTime)

	op.span.SetAttributes(map[string]interface{}{
		"operation.duration_ns": duration.Nanoseconds(),
	})

	if err != nil {
		op.span.SetStatus("error", err.Error())
		op.span.RecordError(err)
	} else {
		op.span.SetStatus("ok", "")
	}

	op.probe.RecordRepositoryOperation(op.ctx, op.operation, op.entity, duration, err)
	op.span.End()
}
