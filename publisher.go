package dispatch

import (
	"context"
	"log/slog"
	"sync/atomic"
)

const (
	publisherRunning = 1
	publisherStopped = 0
)

// Publisher is the entry point producers call. It owns a Registry and a
// Multicaster with one application scope and a controlled lifetime; it
// performs no filtering of its own and exists purely to spare producers
// from constructing Events manually.
type Publisher struct {
	status      int32
	id          string
	name        string
	registry    *Registry
	multicaster *Multicaster
	logger      *slog.Logger
}

// New creates a publisher with a fresh registry.
func New(opts ...Option) *Publisher {
	o := newOptions(opts...)
	registry := NewRegistry()
	return &Publisher{
		status:      publisherRunning,
		id:          NewID(),
		name:        o.name,
		registry:    registry,
		multicaster: NewMulticaster(registry, opts...),
		logger:      o.logger.With("component", "publisher>"+o.name),
	}
}

// ID returns the publisher instance ID.
func (p *Publisher) ID() string {
	return p.id
}

// Name returns the scope name.
func (p *Publisher) Name() string {
	return p.name
}

// Registry returns the listener registry for direct registration.
func (p *Publisher) Registry() *Registry {
	return p.registry
}

// Multicaster returns the underlying multicaster.
func (p *Publisher) Multicaster() *Multicaster {
	return p.multicaster
}

// Running reports whether the publisher accepts publishes.
func (p *Publisher) Running() bool {
	return atomic.LoadInt32(&p.status) == publisherRunning
}

// Publish delivers value to all matching listeners. A value that is
// already an *Event is forwarded unchanged; anything else is wrapped as
// a payload event whose type derives from the value's dynamic type.
func (p *Publisher) Publish(ctx context.Context, value any) (*DispatchResult, error) {
	if !p.Running() {
		return nil, ErrPublisherClosed
	}
	return p.multicaster.Multicast(ctx, value)
}

// Subscribe registers a handler on the publisher's registry.
// Shorthand for Registry().Register.
func (p *Publisher) Subscribe(handler Handler, opts ...RegisterOption) (*Handle, error) {
	if !p.Running() {
		return nil, ErrPublisherClosed
	}
	return p.registry.Register(handler, opts...)
}

// Unsubscribe removes a previously registered handler. Idempotent.
func (p *Publisher) Unsubscribe(h *Handle) {
	p.registry.Unregister(h)
}

// Close stops the publisher and shuts down the execution policy.
// Deferred batches that have not started are dropped; in-flight
// invocations finish. Safe to call more than once.
func (p *Publisher) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&p.status, publisherRunning, publisherStopped) {
		return nil
	}
	p.logger.Debug("publisher closing", "listeners", p.registry.Len())
	return p.multicaster.executor.Close(ctx)
}
