package dispatch

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"sync"
)

// Handler is the callable invoked when a matching event is dispatched.
// The returned error is captured per listener in the DispatchResult and
// never aborts dispatch to the remaining listeners.
type Handler func(ctx context.Context, ev *Event) error

// Registration is a listener entry in the registry: the handler, the
// event types it accepts, and optional ordering and condition metadata.
// Immutable once registered.
type Registration struct {
	id        string
	types     []Type
	condition Condition
	order     int
	ordered   bool
	seq       uint64
	handler   Handler
}

// ID returns the stable listener ID used as the removal key.
func (r *Registration) ID() string {
	return r.id
}

// Types returns a copy of the accepted event type tags.
func (r *Registration) Types() []Type {
	out := make([]Type, len(r.types))
	copy(out, r.types)
	return out
}

// Order returns the explicit order key and whether one was set.
// Registrations without an order key sort after all ordered ones.
func (r *Registration) Order() (int, bool) {
	return r.order, r.ordered
}

// Condition returns the registered condition, or nil for "always fire".
func (r *Registration) Condition() Condition {
	return r.condition
}

func (r *Registration) String() string {
	return fmt.Sprintf("Registration[%s]%v", r.id, r.types)
}

// Handle identifies a registration for removal. Handles stay valid after
// unregistration; unregistering twice is a no-op.
type Handle struct {
	id string
}

// ID returns the listener ID the handle refers to.
func (h *Handle) ID() string {
	return h.id
}

type registrationConfig struct {
	id        string
	types     []Type
	condition Condition
	order     int
	ordered   bool
}

// RegisterOption configures a listener registration.
type RegisterOption func(*registrationConfig)

// On declares event type tags the listener accepts. May be repeated;
// tags accumulate. A listener registered for a category tag matches
// every event carrying that tag.
func On(types ...Type) RegisterOption {
	return func(c *registrationConfig) {
		c.types = append(c.types, types...)
	}
}

// OnAny declares the universal wildcard: the listener matches events of
// every type.
func OnAny() RegisterOption {
	return func(c *registrationConfig) {
		c.types = append(c.types, TypeAny)
	}
}

// WithListenerID sets an explicit listener ID. Explicit IDs must be
// unique within the registry since they are the removal key; reuse fails
// with ErrDuplicateListener. Unset IDs derive from the handler name.
func WithListenerID(id string) RegisterOption {
	return func(c *registrationConfig) {
		if id != "" {
			c.id = id
		}
	}
}

// WithOrder sets the listener's priority key. Listeners are invoked in
// ascending order; listeners sharing a key keep their relative
// registration order, and listeners without a key run after all ordered
// ones in registration order.
func WithOrder(order int) RegisterOption {
	return func(c *registrationConfig) {
		c.order = order
		c.ordered = true
	}
}

// WithCondition gates the listener behind a predicate evaluated per
// event. Nil keeps the default "always fire".
func WithCondition(cond Condition) RegisterOption {
	return func(c *registrationConfig) {
		c.condition = cond
	}
}

// Registry stores listener registrations keyed by the event types they
// accept. Registration and dispatch may run concurrently from multiple
// goroutines: lookups take a shared lock and return a snapshot, mutation
// windows are exclusive and short. Listener invocation never happens
// under the registry lock.
type Registry struct {
	mu      sync.RWMutex
	buckets map[Type]map[string]*Registration
	byID    map[string]*Registration
	seq     uint64
}

// NewRegistry creates an empty listener registry. Each registry is an
// explicit instance with controlled lifetime; there is no process-wide
// default.
func NewRegistry() *Registry {
	return &Registry{
		buckets: make(map[Type]map[string]*Registration),
		byID:    make(map[string]*Registration),
	}
}

// Register inserts the handler under every accepted type and returns a
// handle usable for removal. Fails with ErrNilHandler when the handler
// is nil, ErrEmptyTypes when no types were declared, and
// ErrDuplicateListener when an explicit ID is already taken.
func (r *Registry) Register(handler Handler, opts ...RegisterOption) (*Handle, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	c := &registrationConfig{}
	for _, opt := range opts {
		opt(c)
	}
	if len(c.types) == 0 {
		return nil, ErrEmptyTypes
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.id
	if id == "" {
		// An explicit ID may already occupy the derived name; probe until
		// the slot is free so the earlier registration is never clobbered.
		name := handlerName(handler)
		for n := r.seq; ; n++ {
			id = fmt.Sprintf("%s#%d", name, n)
			if _, exists := r.byID[id]; !exists {
				break
			}
		}
	} else if _, exists := r.byID[id]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateListener, id)
	}

	reg := &Registration{
		id:        id,
		types:     dedupeTypes(c.types),
		condition: c.condition,
		order:     c.order,
		ordered:   c.ordered,
		seq:       r.seq,
		handler:   handler,
	}
	r.seq++

	r.byID[id] = reg
	for _, t := range reg.types {
		bucket := r.buckets[t]
		if bucket == nil {
			bucket = make(map[string]*Registration)
			r.buckets[t] = bucket
		}
		bucket[id] = reg
	}
	return &Handle{id: id}, nil
}

// Unregister removes the registration from every type bucket it was
// inserted into. Idempotent: unregistering an unknown or already removed
// handle is a no-op.
func (r *Registry) Unregister(h *Handle) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(h.id)
}

// RemoveAllMatching removes every registration the predicate accepts and
// returns the count removed. Intended for teardown and tests.
func (r *Registry) RemoveAllMatching(pred func(*Registration) bool) int {
	if pred == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var doomed []string
	for id, reg := range r.byID {
		if pred(reg) {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		r.remove(id)
	}
	return len(doomed)
}

// remove must be called with the write lock held.
func (r *Registry) remove(id string) {
	reg, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	for _, t := range reg.types {
		if bucket := r.buckets[t]; bucket != nil {
			delete(bucket, id)
			if len(bucket) == 0 {
				delete(r.buckets, t)
			}
		}
	}
}

// Lookup returns all registrations accepting the event type, any of its
// category tags, or the universal wildcard. The result is an ordered
// snapshot: explicit order keys ascending first (registration order
// breaks ties), then unordered registrations in registration order. Safe
// to iterate without holding any lock.
func (r *Registry) Lookup(eventType Type, categories ...Type) []*Registration {
	r.mu.RLock()
	seen := make(map[string]*Registration)
	collect := func(t Type) {
		for id, reg := range r.buckets[t] {
			seen[id] = reg
		}
	}
	collect(eventType)
	for _, c := range categories {
		collect(c)
	}
	collect(TypeAny)
	r.mu.RUnlock()

	out := make([]*Registration, 0, len(seen))
	for _, reg := range seen {
		out = append(out, reg)
	}
	slices.SortFunc(out, compareRegistrations)
	return out
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func compareRegistrations(a, b *Registration) int {
	switch {
	case a.ordered && !b.ordered:
		return -1
	case !a.ordered && b.ordered:
		return 1
	case a.ordered && b.ordered && a.order != b.order:
		if a.order < b.order {
			return -1
		}
		return 1
	}
	// Same order key or both unordered: registration order decides.
	if a.seq < b.seq {
		return -1
	}
	if a.seq > b.seq {
		return 1
	}
	return 0
}

func dedupeTypes(types []Type) []Type {
	out := make([]Type, 0, len(types))
	for _, t := range types {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// handlerName derives a readable default listener ID from the handler
// function symbol.
func handlerName(h Handler) string {
	pc := reflect.ValueOf(h).Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "listener"
	}
	name := fn.Name()
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}
