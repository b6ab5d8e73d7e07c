// Package sink provides outbound bridge handlers that republish
// dispatched events to external brokers. A sink is an ordinary listener:
// register its handler on the types to forward and the in-process
// dispatch core stays unaware of the broker.
//
//	fwd, err := natssink.New(conn, "events")
//	if err != nil {
//	    return err
//	}
//	pub.Subscribe(fwd.Handler(), dispatch.OnAny())
//
// Sinks are collaborators at the process boundary, not a dispatch
// transport: delivery guarantees end at the broker's publish call.
package sink

import (
	"strings"
	"time"

	"github.com/rbaliyan/dispatch"
)

// Envelope is the wire shape of a forwarded event. The source reference
// is deliberately absent: it is an in-process handle with no meaning on
// the other side of a broker.
type Envelope struct {
	ID        string    `json:"id" msgpack:"id"`
	Type      string    `json:"type" msgpack:"type"`
	Timestamp time.Time `json:"timestamp" msgpack:"timestamp"`
	Payload   any       `json:"payload" msgpack:"payload"`
}

// FromEvent builds the wire envelope for an event.
func FromEvent(ev *dispatch.Event) *Envelope {
	return &Envelope{
		ID:        ev.ID(),
		Type:      ev.Type().String(),
		Timestamp: ev.Timestamp(),
		Payload:   ev.Payload(),
	}
}

// Subject derives a broker subject/topic segment from an event type:
// lowercased, with characters outside [a-z0-9._-] replaced by '_'.
func Subject(t dispatch.Type) string {
	s := strings.ToLower(t.String())
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') || c == '.' || c == '_' || c == '-' {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
