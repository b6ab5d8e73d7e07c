// Package nats forwards dispatched events to NATS Core pub/sub.
//
// NATS Core provides at-most-once delivery: if no subscribers are
// connected when an event is forwarded, it is dropped on the broker
// side. Suitable for ephemeral fan-out to other processes.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/rbaliyan/dispatch"
	"github.com/rbaliyan/dispatch/codec"
	"github.com/rbaliyan/dispatch/sink"
)

// ErrConnRequired indicates a forwarder was created without a NATS
// connection.
var ErrConnRequired = errors.New("nats connection is required")

// Forwarder republishes dispatched events to NATS subjects of the form
// "<prefix>.<event type>".
type Forwarder struct {
	conn   *nats.Conn
	prefix string
	codec  codec.Codec
	logger *slog.Logger
}

// Option configures the forwarder.
type Option func(*Forwarder)

// WithCodec sets the envelope codec. Default is JSON.
func WithCodec(c codec.Codec) Option {
	return func(f *Forwarder) {
		if c != nil {
			f.codec = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Forwarder) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a NATS forwarder publishing under the given subject
// prefix.
func New(conn *nats.Conn, prefix string, opts ...Option) (*Forwarder, error) {
	if conn == nil {
		return nil, ErrConnRequired
	}
	if prefix == "" {
		prefix = "dispatch"
	}
	f := &Forwarder{
		conn:   conn,
		prefix: prefix,
		codec:  codec.Default(),
		logger: slog.Default().With("component", "sink>nats"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Handler returns the listener handler performing the forwarding.
// Publish failures are returned so the multicaster records them in the
// DispatchResult.
func (f *Forwarder) Handler() dispatch.Handler {
	return func(ctx context.Context, ev *dispatch.Event) error {
		data, err := f.codec.Encode(sink.FromEvent(ev))
		if err != nil {
			return err
		}
		subject := f.prefix + "." + sink.Subject(ev.Type())
		if err := f.conn.Publish(subject, data); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		f.logger.Debug("forwarded event", "subject", subject, "event", ev.ID())
		return nil
	}
}

// Flush waits until all forwarded messages have been processed by the
// server. Useful before shutdown.
func (f *Forwarder) Flush() error {
	return f.conn.Flush()
}
