package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	spanKeyEventID    = "event.id"
	spanKeyEventType  = "event.type"
	spanKeyListenerID = "listener.id"
	spanKeyScope      = "dispatch.scope"
)

// ListenerError records a single listener failure during dispatch.
// Err is a *ConditionError or *InvocationError; use IsConditionError /
// IsInvocationError to tell them apart.
type ListenerError struct {
	ListenerID string
	Err        error
}

// DispatchResult aggregates the outcome of one multicast call.
//
// Under the inline policy the result is complete when Multicast returns.
// Under a delegated policy Multicast returns after submission with only
// Candidates populated; the completed result is delivered to the
// WithOnResult callback once the batch has run. Deferred marks results
// of delegated dispatches in both cases.
type DispatchResult struct {
	EventID    string
	EventType  Type
	Candidates int
	Invoked    int
	Skipped    int
	Errors     []ListenerError
	Deferred   bool
}

// Failed returns the number of listener failures.
func (r *DispatchResult) Failed() int {
	return len(r.Errors)
}

// Ok reports whether every candidate either completed or was skipped by
// its condition.
func (r *DispatchResult) Ok() bool {
	return len(r.Errors) == 0
}

// Multicaster delivers one event to all matching listeners: it snapshots
// candidates from the registry, orders them, evaluates conditions and
// invokes the survivors under the configured execution policy.
type Multicaster struct {
	registry        *Registry
	executor        Executor
	clock           Clock
	logger          *slog.Logger
	name            string
	tracingEnabled  bool
	metricsEnabled  bool
	recoveryEnabled bool
	onResult        func(context.Context, *DispatchResult)
	meters          *meters
}

// NewMulticaster creates a multicaster reading from registry.
func NewMulticaster(registry *Registry, opts ...Option) *Multicaster {
	o := newOptions(opts...)
	m := &Multicaster{
		registry:        registry,
		executor:        o.executor,
		clock:           o.clock,
		logger:          o.logger.With("component", "multicaster>"+o.name),
		name:            o.name,
		tracingEnabled:  o.tracingEnabled,
		metricsEnabled:  o.metricsEnabled,
		recoveryEnabled: o.recoveryEnabled,
		onResult:        o.onResult,
	}
	if m.metricsEnabled {
		m.meters = newMeters(o.name)
	}
	return m
}

// Executor returns the configured execution policy.
func (m *Multicaster) Executor() Executor {
	return m.executor
}

// Multicast delivers value to all matching listeners.
//
// If value is already an *Event it is used directly; any other value is
// wrapped as a payload event whose type tag derives from the value's own
// dynamic type. Listener failures never abort dispatch to the remaining
// listeners and are reported through the result, not the error return:
// publication is a best-effort hand-off, not a transaction. The error
// return covers synchronous problems only (nil value, failed
// submission).
func (m *Multicaster) Multicast(ctx context.Context, value any) (*DispatchResult, error) {
	ev, err := m.normalize(value)
	if err != nil {
		return nil, err
	}

	candidates := m.registry.Lookup(ev.Type(), ev.Categories()...)

	if m.metricsEnabled {
		m.meters.published.Add(ctx, 1,
			metric.WithAttributes(attribute.String(spanKeyEventType, ev.Type().String())))
	}

	var span trace.Span
	if m.tracingEnabled {
		tracer := otel.Tracer(m.name)
		ctx, span = tracer.Start(ctx, fmt.Sprintf("%s.multicast", ev.Type()),
			trace.WithAttributes(
				attribute.String(spanKeyEventID, ev.ID()),
				attribute.String(spanKeyEventType, ev.Type().String()),
				attribute.String(spanKeyScope, m.name)),
			trace.WithSpanKind(trace.SpanKindProducer))
	}

	if !Deferred(m.executor) {
		result := m.run(ctx, ev, candidates)
		if span != nil {
			span.End()
		}
		if m.onResult != nil {
			m.onResult(ctx, result)
		}
		return result, nil
	}

	// Delegated policy: hand the whole ordered batch to the executor as
	// one task so per-multicast listener order survives, and return once
	// submission succeeds.
	err = m.executor.Execute(ctx, func(taskCtx context.Context) {
		result := m.run(taskCtx, ev, candidates)
		result.Deferred = true
		if m.onResult != nil {
			m.onResult(taskCtx, result)
		}
		if !result.Ok() {
			m.logger.Warn("deferred dispatch completed with failures",
				"event", ev.ID(),
				"type", ev.Type(),
				"failed", result.Failed())
		}
	})
	if span != nil {
		span.End()
	}
	if err != nil {
		return nil, fmt.Errorf("dispatch submission failed: %w", err)
	}
	return &DispatchResult{
		EventID:    ev.ID(),
		EventType:  ev.Type(),
		Candidates: len(candidates),
		Deferred:   true,
	}, nil
}

func (m *Multicaster) normalize(value any) (*Event, error) {
	switch v := value.(type) {
	case nil:
		return nil, fmt.Errorf("%w: cannot publish nil", ErrNilSource)
	case *Event:
		// A typed-nil *Event is a non-nil interface and slips past the
		// nil case above.
		if v == nil {
			return nil, fmt.Errorf("%w: nil event", ErrNilSource)
		}
		return v, nil
	case Event:
		return &v, nil
	default:
		return WrapPayload(v, WithClock(m.clock))
	}
}

// run executes the ordered invocation batch. Conditions evaluating false
// skip the listener silently; condition failures and handler failures
// are recorded against the listener ID and dispatch continues.
func (m *Multicaster) run(ctx context.Context, ev *Event, candidates []*Registration) *DispatchResult {
	start := time.Now()
	result := &DispatchResult{
		EventID:    ev.ID(),
		EventType:  ev.Type(),
		Candidates: len(candidates),
	}

	for _, reg := range candidates {
		listenerCtx := contextWithDispatch(ctx, ev.ID(), ev.Type(), reg.id, m.name, m.logger)

		if reg.condition != nil {
			ok, err := m.evaluate(listenerCtx, reg, ev)
			if err != nil {
				result.Errors = append(result.Errors, ListenerError{
					ListenerID: reg.id,
					Err:        &ConditionError{ListenerID: reg.id, Err: err},
				})
				m.countFailure(ctx, ev, "condition")
				m.logger.Warn("condition evaluation failed",
					"listener", reg.id, "event", ev.ID(), "error", err)
				continue
			}
			if !ok {
				result.Skipped++
				if m.metricsEnabled {
					m.meters.skipped.Add(ctx, 1,
						metric.WithAttributes(attribute.String(spanKeyEventType, ev.Type().String())))
				}
				continue
			}
		}

		if err := m.invoke(listenerCtx, reg, ev); err != nil {
			result.Errors = append(result.Errors, ListenerError{
				ListenerID: reg.id,
				Err:        &InvocationError{ListenerID: reg.id, Err: err},
			})
			m.countFailure(ctx, ev, "handler")
			m.logger.Warn("listener failed",
				"listener", reg.id, "event", ev.ID(), "error", err)
			continue
		}
		result.Invoked++
		if m.metricsEnabled {
			m.meters.invoked.Add(ctx, 1,
				metric.WithAttributes(attribute.String(spanKeyEventType, ev.Type().String())))
		}
	}

	if m.metricsEnabled {
		m.meters.duration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String(spanKeyEventType, ev.Type().String())))
	}
	return result
}

// evaluate runs the condition with panic recovery: a panicking predicate
// is an evaluation failure, not a crash and not a false.
func (m *Multicaster) evaluate(ctx context.Context, reg *Registration, ev *Event) (ok bool, err error) {
	if m.recoveryEnabled {
		defer func() {
			if rec := recover(); rec != nil {
				ok = false
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
	}
	return reg.condition.Matches(ctx, ev)
}

func (m *Multicaster) invoke(ctx context.Context, reg *Registration, ev *Event) (err error) {
	var span trace.Span
	if m.tracingEnabled {
		tracer := otel.Tracer(m.name)
		ctx, span = tracer.Start(ctx, fmt.Sprintf("%s.invoke", ev.Type()),
			trace.WithAttributes(
				attribute.String(spanKeyEventID, ev.ID()),
				attribute.String(spanKeyListenerID, reg.id)),
			trace.WithSpanKind(trace.SpanKindConsumer))
		defer span.End()
	}
	if m.recoveryEnabled {
		defer func() {
			if rec := recover(); rec != nil {
				m.logger.Error("listener panic recovered",
					"listener", reg.id,
					"event", ev.ID(),
					"error", rec,
					"stack", string(debug.Stack()))
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
	}
	return reg.handler(ctx, ev)
}

func (m *Multicaster) countFailure(ctx context.Context, ev *Event, stage string) {
	if m.metricsEnabled {
		m.meters.failed.Add(ctx, 1, metric.WithAttributes(
			attribute.String(spanKeyEventType, ev.Type().String()),
			attribute.String("stage", stage)))
	}
}
