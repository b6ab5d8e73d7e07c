package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/time/rate"
)

// Middleware wraps a handler with additional behavior. Middlewares apply
// to individual registrations; the multicaster itself stays unaware of
// them.
type Middleware func(Handler) Handler

// Chain applies middlewares to handler. The first middleware is the
// outermost wrapper.
//
//	h := dispatch.Chain(handler,
//	    dispatch.RecoveryMiddleware(logger),
//	    dispatch.RateLimitMiddleware(rate.NewLimiter(100, 10)),
//	)
func Chain(handler Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// RateLimitMiddleware throttles a listener with a token bucket. The
// handler blocks in Wait until a token is available or the dispatch
// context is cancelled; a cancelled wait is reported as the handler's
// error.
func RateLimitMiddleware(limiter *rate.Limiter) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev *Event) error {
			if err := limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
			return next(ctx, ev)
		}
	}
}

// RecoveryMiddleware converts handler panics into errors. The
// multicaster already recovers panics when WithRecovery is enabled; use
// this when wiring handlers into code that bypasses the multicaster,
// such as sinks driven by external callbacks.
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, ev *Event) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("handler panic recovered",
						"event", ev.ID(),
						"type", ev.Type(),
						"error", rec,
						"stack", string(debug.Stack()))
					err = fmt.Errorf("panic: %v", rec)
				}
			}()
			return next(ctx, ev)
		}
	}
}

// FilterMiddleware drops events the predicate rejects before they reach
// the handler. Unlike a registration Condition, a filtered event still
// counts as invoked in the DispatchResult; prefer WithCondition when the
// skip should be observable.
func FilterMiddleware(pred func(*Event) bool) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev *Event) error {
			if pred != nil && !pred(ev) {
				return nil
			}
			return next(ctx, ev)
		}
	}
}
