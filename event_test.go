package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"syreclabs.com/go/faker"
)

func init() {
	faker.Seed(time.Now().UnixNano())
}

type NewUser struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestNewEvent(t *testing.T) {
	clock := NewManualClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	src := &NewUser{ID: 1, Name: faker.Name().Name()}
	ev, err := NewEvent(src, src, WithClock(clock))
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}
	if ev.ID() == "" {
		t.Error("event id is empty")
	}
	if ev.Type() != Type("NewUser") {
		t.Errorf("type is wrong got:%s, expected:NewUser", ev.Type())
	}
	if !ev.Timestamp().Equal(clock.Now()) {
		t.Errorf("timestamp is wrong got:%v, expected:%v", ev.Timestamp(), clock.Now())
	}
	if ev.Source() != src {
		t.Error("source is wrong")
	}
	if ev.IsPayloadEvent() {
		t.Error("explicit event reported as payload event")
	}
}

func TestNewEventNilSource(t *testing.T) {
	if _, err := NewEvent(nil, "data"); !errors.Is(err, ErrNilSource) {
		t.Errorf("nil source accepted: %v", err)
	}
}

func TestNewEventOptions(t *testing.T) {
	id := NewID()
	ev, err := NewEvent("src", nil,
		WithEventID(id),
		WithType("custom"),
		WithCategories("audit", "user"))
	if err != nil {
		t.Fatalf("NewEvent failed: %v", err)
	}
	if ev.ID() != id {
		t.Errorf("id is wrong got:%s, expected:%s", ev.ID(), id)
	}
	if ev.Type() != Type("custom") {
		t.Errorf("type override ignored got:%s", ev.Type())
	}
	if diff := cmp.Diff([]Type{"audit", "user"}, ev.Categories()); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	// Categories must be a copy.
	ev.Categories()[0] = "mutated"
	if ev.Categories()[0] != Type("audit") {
		t.Error("categories returned a mutable reference")
	}
}

func TestWrapPayload(t *testing.T) {
	payload := NewUser{ID: 7}
	ev, err := WrapPayload(payload)
	if err != nil {
		t.Fatalf("WrapPayload failed: %v", err)
	}
	if !ev.IsPayloadEvent() {
		t.Error("wrapped event not marked as payload event")
	}
	if ev.Source() == nil || ev.Payload() == nil {
		t.Error("wrapped event lost its value")
	}
	if ev.Type() != Type("NewUser") {
		t.Errorf("type is wrong got:%s, expected:NewUser", ev.Type())
	}
}

func TestTypeOf(t *testing.T) {
	cases := []struct {
		value    any
		expected Type
	}{
		{NewUser{}, "NewUser"},
		{&NewUser{}, "NewUser"},
		{"hello", "string"},
		{42, "int"},
		{map[string]int{}, "map[string]int"},
		{nil, ""},
	}
	for _, c := range cases {
		if got := TypeOf(c.value); got != c.expected {
			t.Errorf("TypeOf(%T) got:%s, expected:%s", c.value, got, c.expected)
		}
	}
}

func TestManualClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)
	clock.Advance(time.Hour)
	if got := clock.Now(); !got.Equal(start.Add(time.Hour)) {
		t.Errorf("advance is wrong got:%v", got)
	}
	clock.Set(start)
	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("set is wrong got:%v", got)
	}
}
