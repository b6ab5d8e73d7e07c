package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func noopHandler(ctx context.Context, ev *Event) error {
	return nil
}

func TestRegisterValidation(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register(nil, On("x")); !errors.Is(err, ErrNilHandler) {
		t.Errorf("nil handler accepted: %v", err)
	}
	if _, err := r.Register(noopHandler); !errors.Is(err, ErrEmptyTypes) {
		t.Errorf("empty types accepted: %v", err)
	}
	if _, err := r.Register(noopHandler, On("x"), WithListenerID("a")); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := r.Register(noopHandler, On("y"), WithListenerID("a")); !errors.Is(err, ErrDuplicateListener) {
		t.Errorf("duplicate listener id accepted: %v", err)
	}
}

func TestRegisterDerivedIDs(t *testing.T) {
	r := NewRegistry()
	h1, err := r.Register(noopHandler, On("x"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	h2, err := r.Register(noopHandler, On("x"))
	if err != nil {
		t.Fatalf("register of same handler twice failed: %v", err)
	}
	if h1.ID() == h2.ID() {
		t.Errorf("derived ids collide: %s", h1.ID())
	}
}

func TestRegisterDerivedIDAvoidsExplicit(t *testing.T) {
	r := NewRegistry()
	// Occupy the exact ID the next derived registration would pick.
	taken := "dispatch.noopHandler#1"
	if _, err := r.Register(noopHandler, On("x"), WithListenerID(taken)); err != nil {
		t.Fatal(err)
	}
	h, err := r.Register(noopHandler, On("x"))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if h.ID() == taken {
		t.Fatalf("derived id clobbered the explicit registration: %s", h.ID())
	}
	if got := r.Len(); got != 2 {
		t.Errorf("len got:%d, expected:2", got)
	}
	if got := len(r.Lookup("x")); got != 2 {
		t.Errorf("lookup count got:%d, expected:2", got)
	}
}

func lookupIDs(r *Registry, eventType Type, categories ...Type) []string {
	regs := r.Lookup(eventType, categories...)
	ids := make([]string, len(regs))
	for i, reg := range regs {
		ids[i] = reg.ID()
	}
	return ids
}

func TestLookupOrdering(t *testing.T) {
	r := NewRegistry()
	register := func(id string, opts ...RegisterOption) {
		t.Helper()
		opts = append([]RegisterOption{On("x"), WithListenerID(id)}, opts...)
		if _, err := r.Register(noopHandler, opts...); err != nil {
			t.Fatalf("register %s failed: %v", id, err)
		}
	}
	register("unordered-1")
	register("late", WithOrder(10))
	register("early", WithOrder(1))
	register("unordered-2")
	register("tied", WithOrder(1))

	expected := []string{"early", "tied", "late", "unordered-1", "unordered-2"}
	if diff := cmp.Diff(expected, lookupIDs(r, "x")); diff != "" {
		t.Errorf("lookup order mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupCategoriesAndWildcard(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register(noopHandler, On("NewUser"), WithListenerID("typed")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register(noopHandler, On("user-events"), WithListenerID("category")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register(noopHandler, OnAny(), WithListenerID("wildcard")); err != nil {
		t.Fatal(err)
	}
	// Accepts both the type and the category tag: must appear once.
	if _, err := r.Register(noopHandler, On("NewUser", "user-events"), WithListenerID("both")); err != nil {
		t.Fatal(err)
	}

	ids := lookupIDs(r, "NewUser", "user-events")
	if len(ids) != 4 {
		t.Fatalf("candidate count is wrong got:%d, expected:4 (%v)", len(ids), ids)
	}
	if got := lookupIDs(r, "Unrelated"); len(got) != 1 || got[0] != "wildcard" {
		t.Errorf("wildcard-only lookup is wrong got:%v", got)
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	h, err := r.Register(noopHandler, On("x", "y"), WithListenerID("a"))
	if err != nil {
		t.Fatal(err)
	}
	r.Unregister(h)
	if got := r.Len(); got != 0 {
		t.Errorf("len after unregister got:%d, expected:0", got)
	}
	if got := len(r.Lookup("y")); got != 0 {
		t.Errorf("registration still reachable via second type: %d", got)
	}
	// Idempotent.
	r.Unregister(h)
	r.Unregister(nil)
}

func TestRemoveAllMatching(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"keep", "drop-1", "drop-2"} {
		if _, err := r.Register(noopHandler, On("x"), WithListenerID(id)); err != nil {
			t.Fatal(err)
		}
	}
	removed := r.RemoveAllMatching(func(reg *Registration) bool {
		return reg.ID() != "keep"
	})
	if removed != 2 {
		t.Errorf("removed count got:%d, expected:2", removed)
	}
	if got := lookupIDs(r, "x"); len(got) != 1 || got[0] != "keep" {
		t.Errorf("surviving registrations are wrong: %v", got)
	}
}

func TestRegistrationAccessors(t *testing.T) {
	r := NewRegistry()
	cond := ConditionFunc(func(ctx context.Context, ev *Event) (bool, error) { return true, nil })
	if _, err := r.Register(noopHandler, On("x", "x", "y"), WithListenerID("a"), WithOrder(3), WithCondition(cond)); err != nil {
		t.Fatal(err)
	}
	reg := r.Lookup("x")[0]
	if diff := cmp.Diff([]Type{"x", "y"}, reg.Types()); diff != "" {
		t.Errorf("types not deduped (-want +got):\n%s", diff)
	}
	if order, ok := reg.Order(); !ok || order != 3 {
		t.Errorf("order is wrong got:%d,%v", order, ok)
	}
	if reg.Condition() == nil {
		t.Error("condition lost")
	}
}
