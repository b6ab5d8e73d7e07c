package dispatch

import (
	"context"
	"log/slog"
)

// options holds shared configuration for Multicaster and Publisher.
type options struct {
	name            string
	logger          *slog.Logger
	clock           Clock
	executor        Executor
	tracingEnabled  bool
	metricsEnabled  bool
	recoveryEnabled bool
	onResult        func(context.Context, *DispatchResult)
}

// Option configures a Multicaster or Publisher.
type Option func(*options)

func newOptions(opts ...Option) *options {
	o := &options{
		name:            "dispatch",
		logger:          slog.Default(),
		clock:           systemClock{},
		tracingEnabled:  true,
		metricsEnabled:  true,
		recoveryEnabled: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.executor == nil {
		o.executor = Inline()
	}
	return o
}

// WithName sets the scope name used in logs, spans and metric attributes.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDispatchClock sets the clock used to stamp payload events wrapped
// at publish time. Default is the wall clock.
func WithDispatchClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithExecutor selects the execution policy. Default is Inline(): the
// caller's goroutine runs every handler before Multicast returns. Use
// Pool(n) for delegated execution, where Multicast returns once
// submission succeeds.
func WithExecutor(e Executor) Option {
	return func(o *options) {
		if e != nil {
			o.executor = e
		}
	}
}

// WithTracing enables/disables OpenTelemetry tracing. Default is true.
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
	}
}

// WithMetrics enables/disables OpenTelemetry metrics. Default is true.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metricsEnabled = enabled
	}
}

// WithRecovery enables/disables panic recovery around handlers.
// Recovered panics are recorded as InvocationErrors. Should stay
// enabled; disable only in tests that assert on panics. Default is true.
func WithRecovery(enabled bool) Option {
	return func(o *options) {
		o.recoveryEnabled = enabled
	}
}

// WithOnResult registers a callback observing every completed dispatch.
// Under the inline policy it runs before Multicast returns; under a
// delegated policy it runs on the worker goroutine once the deferred
// batch completes. Use journal.Recorder to persist results.
func WithOnResult(fn func(context.Context, *DispatchResult)) Option {
	return func(o *options) {
		o.onResult = fn
	}
}
