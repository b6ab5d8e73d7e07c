package dispatch

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Type is an event type tag. Lookups match on tags, not on a class
// hierarchy: an event carries its own tag plus the tags of any categories
// it belongs to, and a listener registered for a category tag matches
// every event carrying that tag.
type Type string

// TypeAny is the universal wildcard tag. A listener registered with
// OnAny() matches events of every type.
const TypeAny Type = "*"

func (t Type) String() string {
	return string(t)
}

// TypeOf derives the type tag for an arbitrary payload value from its
// dynamic Go type. Named types use their bare name, unnamed types fall
// back to the reflected type string, pointers are unwrapped.
func TypeOf(v any) Type {
	if v == nil {
		return ""
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return Type(name)
	}
	return Type(t.String())
}

// NewID generates a new unique ID.
func NewID() string {
	return uuid.NewString()
}

// Clock supplies event timestamps. It is an injected boundary so tests
// can stamp events deterministically; see ManualClock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns the wall-clock Clock used by default.
func SystemClock() Clock {
	return systemClock{}
}

// Event is an immutable record of an occurrence. It carries the source
// that caused it, a creation timestamp assigned exactly once, a type tag
// with optional category tags, and an application payload. Events are
// owned by the multicaster for the duration of a dispatch and discarded
// afterwards; nothing in this package persists them.
type Event struct {
	id         string
	source     any
	payload    any
	typ        Type
	categories []Type
	timestamp  time.Time
	wrapped    bool
}

// EventOption configures event construction.
type EventOption func(*eventConfig)

type eventConfig struct {
	id         string
	typ        Type
	categories []Type
	clock      Clock
}

// WithType overrides the derived type tag.
func WithType(t Type) EventOption {
	return func(c *eventConfig) {
		if t != "" {
			c.typ = t
		}
	}
}

// WithCategories adds category tags the event belongs to. Listeners
// registered for any of these tags match the event.
func WithCategories(categories ...Type) EventOption {
	return func(c *eventConfig) {
		c.categories = append(c.categories, categories...)
	}
}

// WithEventID sets an explicit event ID instead of a generated one.
func WithEventID(id string) EventOption {
	return func(c *eventConfig) {
		if id != "" {
			c.id = id
		}
	}
}

// WithClock sets the clock used to stamp the event.
func WithClock(clock Clock) EventOption {
	return func(c *eventConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewEvent creates an immutable event attributed to source.
// The payload may be nil, in which case the event itself is the
// interesting fact. Returns ErrNilSource if source is nil: an event must
// always be attributable to a cause.
func NewEvent(source, payload any, opts ...EventOption) (*Event, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil source", ErrNilSource)
	}
	c := &eventConfig{clock: systemClock{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.id == "" {
		c.id = NewID()
	}
	if c.typ == "" {
		if payload != nil {
			c.typ = TypeOf(payload)
		} else {
			c.typ = TypeOf(source)
		}
	}
	return &Event{
		id:         c.id,
		source:     source,
		payload:    payload,
		typ:        c.typ,
		categories: c.categories,
		timestamp:  c.clock.Now(),
	}, nil
}

// WrapPayload synthesizes a payload event around a raw value that is not
// itself an *Event. The value acts as both source and payload and the
// type tag is derived from its dynamic type.
func WrapPayload(payload any, opts ...EventOption) (*Event, error) {
	ev, err := NewEvent(payload, payload, opts...)
	if err != nil {
		return nil, err
	}
	ev.wrapped = true
	return ev, nil
}

// ID returns the unique event ID.
func (e *Event) ID() string {
	return e.id
}

// Source returns the object that caused the event.
func (e *Event) Source() any {
	return e.source
}

// Payload returns the application data carried by the event.
func (e *Event) Payload() any {
	return e.payload
}

// Type returns the event's own type tag.
func (e *Event) Type() Type {
	return e.typ
}

// Categories returns a copy of the category tags the event belongs to.
func (e *Event) Categories() []Type {
	if len(e.categories) == 0 {
		return nil
	}
	out := make([]Type, len(e.categories))
	copy(out, e.categories)
	return out
}

// Timestamp returns the creation time, assigned once at construction.
func (e *Event) Timestamp() time.Time {
	return e.timestamp
}

// IsPayloadEvent reports whether the event was synthesized to wrap a raw
// value passed to Publish or Multicast.
func (e *Event) IsPayloadEvent() bool {
	return e.wrapped
}

func (e *Event) String() string {
	return fmt.Sprintf("Event[%s]<%s>", e.typ, e.id)
}
