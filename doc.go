// Package dispatch provides an in-process publish/subscribe mechanism:
// producers emit typed events without knowledge of consumers, listeners
// register interest in event types and are invoked when a matching event
// is multicast.
//
// Architecture:
//   - Events are immutable values carrying a source, a creation
//     timestamp from an injectable clock, a payload and a type tag with
//     optional category tags. Polymorphic matching works on tag-set
//     intersection, not on a type hierarchy.
//   - The Registry stores listeners per type tag with optional order
//     keys and conditions. Lookups return ordered snapshots; mutation
//     windows are short and exclusive.
//   - The Multicaster snapshots candidates, evaluates conditions and
//     invokes survivors in deterministic order. Listener failures are
//     captured per listener in the DispatchResult and never abort
//     dispatch: publication is a best-effort hand-off, not a
//     transaction.
//   - The Publisher facade normalizes raw values into payload events and
//     delegates to the Multicaster.
//
// Basic example:
//
//	type NewUser struct {
//	    ID int
//	}
//
//	pub := dispatch.New(dispatch.WithName("accounts"))
//	defer pub.Close(ctx)
//
//	handle, err := pub.Subscribe(func(ctx context.Context, ev *dispatch.Event) error {
//	    user := ev.Payload().(NewUser)
//	    fmt.Println("new user:", user.ID)
//	    return nil
//	}, dispatch.On("NewUser"), dispatch.WithOrder(1))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pub.Unsubscribe(handle)
//
//	result, err := pub.Publish(ctx, NewUser{ID: 7})
//
// Execution policy:
// Publishing an event does not imply synchronous execution by contract.
// The default policy is Inline(): every handler runs on the caller's
// goroutine before Publish returns and the DispatchResult is complete.
// With WithExecutor(dispatch.Pool(n)) the ordered invocation batch is
// handed to a worker pool and Publish returns once submission succeeds,
// with DispatchResult.Deferred set; completed results reach the
// WithOnResult callback. Within one multicast, listener order is
// deterministic under either policy.
//
// Conditions:
// A registration may carry a Condition predicate. False evaluations skip
// the listener silently; evaluation failures are recorded as
// ConditionError in the DispatchResult, distinct from false, so a broken
// predicate never masquerades as "listener should not fire". The expr
// subpackage provides a small expression-language plugin.
//
// Options:
//   - WithName: scope name for logs, spans and metrics.
//   - WithExecutor: execution policy. Default Inline().
//   - WithTracing / WithMetrics: OpenTelemetry spans and counters.
//     Default true.
//   - WithRecovery: panic recovery around handlers and conditions.
//     Default true.
//   - WithDispatchClock: clock stamping wrapped payload events.
//   - WithOnResult: dispatch result observer; see journal.Recorder.
package dispatch
