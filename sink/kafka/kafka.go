// Package kafka forwards dispatched events to a Kafka topic.
//
// Events are published through a synchronous producer so that broker
// failures surface in the DispatchResult of the triggering publish.
// The event ID is used as the message key, which keeps retries for the
// same event on the same partition.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/rbaliyan/dispatch"
	"github.com/rbaliyan/dispatch/codec"
	"github.com/rbaliyan/dispatch/sink"
)

// ErrProducerRequired indicates a forwarder was created without a
// producer.
var ErrProducerRequired = errors.New("kafka producer is required")

// Forwarder republishes dispatched events to a Kafka topic.
type Forwarder struct {
	producer sarama.SyncProducer
	topic    string
	codec    codec.Codec
	logger   *slog.Logger
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

// New creates a Kafka forwarder publishing to the given topic. topic
// may be empty to use "dispatch".
func New(producer sarama.SyncProducer, topic string, opts ...Option) (*Forwarder, error) {
	if producer == nil {
		return nil, ErrProducerRequired
	}
	if topic == "" {
		topic = "dispatch"
	}
	f := &Forwarder{
		producer: producer,
		topic:    topic,
		codec:    codec.Default(),
		logger:   slog.Default().With("component", "sink>kafka"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Handler returns the listener handler performing the forwarding.
func (f *Forwarder) Handler() dispatch.Handler {
	return func(ctx context.Context, ev *dispatch.Event) error {
		data, err := f.codec.Encode(sink.FromEvent(ev))
		if err != nil {
			return err
		}
		msg := &sarama.ProducerMessage{
			Topic: f.topic,
			Key:   sarama.StringEncoder(ev.ID()),
			Value: sarama.ByteEncoder(data),
			Headers: []sarama.RecordHeader{
				{Key: []byte("event-type"), Value: []byte(ev.Type())},
				{Key: []byte("content-type"), Value: []byte(f.codec.ContentType())},
			},
		}
		partition, offset, err := f.producer.SendMessage(msg)
		if err != nil {
			return fmt.Errorf("kafka publish: %w", err)
		}
		f.logger.Debug("forwarded event",
			"topic", f.topic, "partition", partition, "offset", offset, "event", ev.ID())
		return nil
	}
}

// Close closes the underlying producer.
func (f *Forwarder) Close() error {
	return f.producer.Close()
}
