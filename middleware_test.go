package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"
)

func TestChainOrder(t *testing.T) {
	var trace []string
	tag := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, ev *Event) error {
				trace = append(trace, name)
				return next(ctx, ev)
			}
		}
	}
	h := Chain(func(ctx context.Context, ev *Event) error {
		trace = append(trace, "handler")
		return nil
	}, tag("outer"), tag("inner"))

	ev, err := WrapPayload("x")
	if err != nil {
		t.Fatal(err)
	}
	if err := h(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"outer", "inner", "handler"}, trace); diff != "" {
		t.Errorf("chain order mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterMiddleware(t *testing.T) {
	pub := TestPublisher()
	defer pub.Close(context.Background())

	rec := NewRecordingListener(nil)
	h := Chain(rec.Handler(), FilterMiddleware(func(ev *Event) bool {
		u, ok := ev.Payload().(NewUser)
		return ok && u.ID > 100
	}))
	if _, err := pub.Subscribe(h, On("NewUser")); err != nil {
		t.Fatal(err)
	}

	result, err := pub.Publish(context.Background(), NewUser{ID: 7})
	if err != nil {
		t.Fatal(err)
	}
	// Filtering happens inside the handler: the result still counts the
	// listener as invoked, unlike a registration condition.
	if result.Invoked != 1 || result.Skipped != 0 {
		t.Errorf("filtered result is wrong: %+v", result)
	}
	if rec.Count() != 0 {
		t.Error("filtered event reached the handler")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Minute), 1)
	h := Chain(noopHandler, RateLimitMiddleware(limiter))

	ev, err := WrapPayload("x")
	if err != nil {
		t.Fatal(err)
	}
	if err := h(context.Background(), ev); err != nil {
		t.Fatalf("first call should pass the bucket: %v", err)
	}
	// Bucket drained; a cancelled context must abort the wait.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h(ctx, ev); err == nil {
		t.Error("drained limiter with cancelled context returned nil")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := Chain(func(ctx context.Context, ev *Event) error {
		panic("handler exploded")
	}, RecoveryMiddleware(nil))

	ev, err := WrapPayload("x")
	if err != nil {
		t.Fatal(err)
	}
	if err := h(context.Background(), ev); err == nil {
		t.Error("panic not converted to error")
	}
}
