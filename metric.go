package dispatch

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// meters holds the OpenTelemetry instruments recorded per dispatch.
// Instrument creation errors are ignored the way the otel API intends:
// a failed instrument is a no-op, never a reason to refuse dispatch.
type meters struct {
	published metric.Int64Counter
	invoked   metric.Int64Counter
	skipped   metric.Int64Counter
	failed    metric.Int64Counter
	duration  metric.Float64Histogram
}

func newMeters(name string) *meters {
	meter := otel.Meter(name)
	published, _ := meter.Int64Counter("dispatch.published",
		metric.WithDescription("Total number of events multicast"))
	invoked, _ := meter.Int64Counter("dispatch.listener.invoked",
		metric.WithDescription("Total listener invocations completed without error"))
	skipped, _ := meter.Int64Counter("dispatch.listener.skipped",
		metric.WithDescription("Total listener invocations skipped by condition"))
	failed, _ := meter.Int64Counter("dispatch.listener.failed",
		metric.WithDescription("Total listener invocations that returned an error or panicked"))
	duration, _ := meter.Float64Histogram("dispatch.duration",
		metric.WithDescription("Multicast batch duration"),
		metric.WithUnit("s"))
	return &meters{
		published: published,
		invoked:   invoked,
		skipped:   skipped,
		failed:    failed,
		duration:  duration,
	}
}
