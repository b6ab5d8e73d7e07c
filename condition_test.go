package dispatch

import (
	"context"
	"errors"
	"testing"
)

var errBrokenCondition = errors.New("broken condition")

func constCond(v bool) Condition {
	return ConditionFunc(func(ctx context.Context, ev *Event) (bool, error) {
		return v, nil
	})
}

func failingCond() Condition {
	return ConditionFunc(func(ctx context.Context, ev *Event) (bool, error) {
		return false, errBrokenCondition
	})
}

func TestConditionCombinators(t *testing.T) {
	ctx := context.Background()
	ev, err := WrapPayload("payload")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name     string
		cond     Condition
		expected bool
	}{
		{"not true", Not(constCond(true)), false},
		{"not false", Not(constCond(false)), true},
		{"all true", AllOf(constCond(true), constCond(true)), true},
		{"all mixed", AllOf(constCond(true), constCond(false)), false},
		{"all empty", AllOf(), true},
		{"any mixed", AnyOf(constCond(false), constCond(true)), true},
		{"any false", AnyOf(constCond(false), constCond(false)), false},
		{"any empty", AnyOf(), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ok, err := c.cond.Matches(ctx, ev)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != c.expected {
				t.Errorf("got:%v, expected:%v", ok, c.expected)
			}
		})
	}
}

func TestConditionErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	ev, err := WrapPayload("payload")
	if err != nil {
		t.Fatal(err)
	}
	for _, cond := range []Condition{
		Not(failingCond()),
		AllOf(constCond(true), failingCond()),
		AnyOf(constCond(false), failingCond()),
	} {
		if _, err := cond.Matches(ctx, ev); !errors.Is(err, errBrokenCondition) {
			t.Errorf("evaluation error swallowed: %v", err)
		}
	}
}

func TestAnyOfShortCircuits(t *testing.T) {
	ctx := context.Background()
	ev, err := WrapPayload("payload")
	if err != nil {
		t.Fatal(err)
	}
	// A true result before the failing condition must win.
	ok, err := AnyOf(constCond(true), failingCond()).Matches(ctx, ev)
	if err != nil || !ok {
		t.Errorf("short-circuit failed got:%v err:%v", ok, err)
	}
}
