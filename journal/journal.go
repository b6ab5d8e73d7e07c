// Package journal persists dispatch outcomes for inspection and
// auditing. A journal entry is written per multicast once the invocation
// batch has completed, under the inline policy as well as delegated
// ones, which makes the journal the place to observe deferred results.
//
// Storage backends:
//   - Memory: bounded in-process ring, for tests and small deployments
//   - Redis: capped list of MessagePack-encoded entries
//   - MongoDB: one document per dispatch
//
// Wire a journal through the dispatch result callback:
//
//	store := journal.NewMemory(1000)
//	pub := dispatch.New(dispatch.WithOnResult(journal.Recorder(store, logger)))
package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/rbaliyan/dispatch"
)

// Failure stages
const (
	StageCondition = "condition"
	StageHandler   = "handler"
)

// Failure records one listener failure within a dispatch.
type Failure struct {
	ListenerID string `json:"listener_id" bson:"listener_id" msgpack:"listener_id"`
	Stage      string `json:"stage" bson:"stage" msgpack:"stage"`
	Error      string `json:"error" bson:"error" msgpack:"error"`
}

// Entry is one journaled dispatch outcome.
type Entry struct {
	EventID    string    `json:"event_id" bson:"event_id" msgpack:"event_id"`
	EventType  string    `json:"event_type" bson:"event_type" msgpack:"event_type"`
	Candidates int       `json:"candidates" bson:"candidates" msgpack:"candidates"`
	Invoked    int       `json:"invoked" bson:"invoked" msgpack:"invoked"`
	Skipped    int       `json:"skipped" bson:"skipped" msgpack:"skipped"`
	Deferred   bool      `json:"deferred" bson:"deferred" msgpack:"deferred"`
	Failures   []Failure `json:"failures,omitempty" bson:"failures,omitempty" msgpack:"failures"`
	RecordedAt time.Time `json:"recorded_at" bson:"recorded_at" msgpack:"recorded_at"`
}

// Store persists journal entries. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append stores one entry.
	Append(ctx context.Context, e *Entry) error

	// List returns the most recent entries, newest first. limit <= 0
	// returns everything the backend retains.
	List(ctx context.Context, limit int64) ([]*Entry, error)

	// Count returns the number of retained entries.
	Count(ctx context.Context) (int64, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error
}

// FromResult converts a completed dispatch result into a journal entry.
func FromResult(r *dispatch.DispatchResult) *Entry {
	e := &Entry{
		EventID:    r.EventID,
		EventType:  r.EventType.String(),
		Candidates: r.Candidates,
		Invoked:    r.Invoked,
		Skipped:    r.Skipped,
		Deferred:   r.Deferred,
		RecordedAt: time.Now(),
	}
	for _, le := range r.Errors {
		stage := StageHandler
		if dispatch.IsConditionError(le.Err) {
			stage = StageCondition
		}
		e.Failures = append(e.Failures, Failure{
			ListenerID: le.ListenerID,
			Stage:      stage,
			Error:      le.Err.Error(),
		})
	}
	return e
}

// Recorder adapts a Store to the dispatch.WithOnResult callback. The
// callback only ever sees completed results, so every one is journaled;
// entries for dispatches that ran under a delegated policy carry
// Deferred=true. Store failures are logged and otherwise ignored:
// journaling must never break dispatch.
func Recorder(store Store, logger *slog.Logger) func(context.Context, *dispatch.DispatchResult) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, r *dispatch.DispatchResult) {
		if err := store.Append(ctx, FromResult(r)); err != nil {
			logger.Warn("journal append failed", "event", r.EventID, "error", err)
		}
	}
}
