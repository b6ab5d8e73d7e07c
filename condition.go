package dispatch

import "context"

// Condition is a predicate gating whether a listener fires for a given
// event. It must be a pure function of the event with no required side
// effects. A nil Condition on a registration means "always fire" and is
// short-circuited without any evaluator call.
//
// Evaluation failures are surfaced to the DispatchResult as
// ConditionError rather than silently treated as false; conditional
// logic controls business-critical dispatch and a broken predicate must
// stay visible.
//
// The core mandates no expression language. A condition may be a
// closure, a rule object, or a compiled expression; the expr subpackage
// offers a small expression evaluator as a separate plugin.
type Condition interface {
	Matches(ctx context.Context, ev *Event) (bool, error)
}

// ConditionFunc adapts a plain function to the Condition interface.
type ConditionFunc func(ctx context.Context, ev *Event) (bool, error)

// Matches calls f.
func (f ConditionFunc) Matches(ctx context.Context, ev *Event) (bool, error) {
	return f(ctx, ev)
}

// Not inverts a condition. Evaluation errors pass through unchanged.
func Not(c Condition) Condition {
	return ConditionFunc(func(ctx context.Context, ev *Event) (bool, error) {
		ok, err := c.Matches(ctx, ev)
		if err != nil {
			return false, err
		}
		return !ok, nil
	})
}

// AllOf matches when every condition matches. Evaluation stops at the
// first false result or error. With no conditions it always matches.
func AllOf(conditions ...Condition) Condition {
	return ConditionFunc(func(ctx context.Context, ev *Event) (bool, error) {
		for _, c := range conditions {
			ok, err := c.Matches(ctx, ev)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	})
}

// AnyOf matches when at least one condition matches. Evaluation stops at
// the first true result or error. With no conditions it never matches.
func AnyOf(conditions ...Condition) Condition {
	return ConditionFunc(func(ctx context.Context, ev *Event) (bool, error) {
		for _, c := range conditions {
			ok, err := c.Matches(ctx, ev)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	})
}
