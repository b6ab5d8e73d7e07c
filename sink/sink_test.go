package sink

import (
	"testing"

	"github.com/rbaliyan/dispatch"
)

func TestFromEvent(t *testing.T) {
	type payment struct{ Amount int }
	ev, err := dispatch.WrapPayload(payment{Amount: 5})
	if err != nil {
		t.Fatal(err)
	}
	env := FromEvent(ev)
	if env.ID != ev.ID() || env.Type != "payment" || !env.Timestamp.Equal(ev.Timestamp()) {
		t.Errorf("envelope is wrong: %+v", env)
	}
	if _, ok := env.Payload.(payment); !ok {
		t.Errorf("payload type is wrong: %T", env.Payload)
	}
}

func TestSubject(t *testing.T) {
	cases := []struct {
		in       dispatch.Type
		expected string
	}{
		{"NewUser", "newuser"},
		{"order.created", "order.created"},
		{"map[string]int", "map_string_int"},
		{"user-events", "user-events"},
		{"*", "_"},
	}
	for _, c := range cases {
		if got := Subject(c.in); got != c.expected {
			t.Errorf("Subject(%q) got:%s, expected:%s", c.in, got, c.expected)
		}
	}
}
