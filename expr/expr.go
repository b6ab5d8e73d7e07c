// Package expr provides a small expression language for listener
// conditions, evaluated against the JSON shape of a dispatched event.
//
// An expression is a field path, optionally compared with a literal:
//
//	payload.id > 100
//	payload.country == "DE"
//	payload.active == true
//	payload.deleted_at == null
//	payload.email
//
// A bare path matches when the field exists. Paths use gjson syntax and
// resolve against a document of the form:
//
//	{"id": ..., "type": ..., "timestamp": ..., "payload": ...}
//
// The plugin is deliberately decoupled from the dispatch core: Parse
// returns a dispatch.Condition and the core never imports this package.
// Failures at evaluation time (missing field, type mismatch,
// unmarshalable payload) are reported as errors, never as false, so the
// multicaster records them as condition failures.
package expr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/rbaliyan/dispatch"
)

// Expression errors
var (
	// ErrInvalidExpression indicates the expression source could not be
	// parsed. Raised by Parse, never deferred to evaluation.
	ErrInvalidExpression = errors.New("invalid expression")

	// ErrFieldNotFound indicates the path resolved to nothing at
	// evaluation time.
	ErrFieldNotFound = errors.New("field not found")

	// ErrTypeMismatch indicates the field and the literal cannot be
	// compared.
	ErrTypeMismatch = errors.New("type mismatch in comparison")
)

type literalKind int

const (
	litNumber literalKind = iota
	litString
	litBool
	litNull
)

type literal struct {
	kind literalKind
	num  float64
	str  string
	b    bool
}

// Expression is a compiled condition. Safe for concurrent use.
type Expression struct {
	src  string
	path string
	op   string
	lit  literal
	cmp  bool
}

// eventDocument is the JSON shape expressions evaluate against.
type eventDocument struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Parse compiles an expression into a dispatch.Condition.
func Parse(src string) (*Expression, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidExpression)
	}

	path, rest, _ := strings.Cut(trimmed, " ")
	rest = strings.TrimSpace(rest)

	e := &Expression{src: src, path: path}
	if rest == "" {
		// Bare path: existence check.
		return e, nil
	}

	op, litText, ok := strings.Cut(rest, " ")
	litText = strings.TrimSpace(litText)
	if !ok || litText == "" {
		return nil, fmt.Errorf("%w: missing comparison operand in %q", ErrInvalidExpression, src)
	}
	switch op {
	case "==", "!=", ">", ">=", "<", "<=":
	default:
		return nil, fmt.Errorf("%w: unknown operator %q in %q", ErrInvalidExpression, op, src)
	}

	lit, err := parseLiteral(litText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v in %q", ErrInvalidExpression, err, src)
	}
	if lit.kind != litNumber && lit.kind != litString && (op != "==" && op != "!=") {
		return nil, fmt.Errorf("%w: operator %q requires a number or string operand", ErrInvalidExpression, op)
	}

	e.op = op
	e.lit = lit
	e.cmp = true
	return e, nil
}

// MustParse is like Parse but panics on error. For static expressions.
func MustParse(src string) *Expression {
	e, err := Parse(src)
	if err != nil {
		panic("expr: " + err.Error())
	}
	return e
}

// String returns the expression source.
func (e *Expression) String() string {
	return e.src
}

// Matches evaluates the expression against the event.
func (e *Expression) Matches(ctx context.Context, ev *dispatch.Event) (bool, error) {
	doc, err := json.Marshal(eventDocument{
		ID:        ev.ID(),
		Type:      ev.Type().String(),
		Timestamp: ev.Timestamp(),
		Payload:   ev.Payload(),
	})
	if err != nil {
		return false, fmt.Errorf("marshal event: %w", err)
	}

	field := gjson.GetBytes(doc, e.path)
	if !field.Exists() {
		if !e.cmp {
			return false, nil
		}
		// Comparing against null tolerates a missing field.
		if e.lit.kind == litNull {
			return e.op == "==", nil
		}
		return false, fmt.Errorf("%w: %q", ErrFieldNotFound, e.path)
	}
	if !e.cmp {
		return true, nil
	}
	return e.compare(field)
}

func (e *Expression) compare(field gjson.Result) (bool, error) {
	switch e.lit.kind {
	case litNumber:
		if field.Type != gjson.Number {
			return false, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, e.path)
		}
		return compareOrdered(e.op, field.Num, e.lit.num)
	case litString:
		if field.Type != gjson.String {
			return false, fmt.Errorf("%w: %q is not a string", ErrTypeMismatch, e.path)
		}
		return compareOrdered(e.op, field.Str, e.lit.str)
	case litBool:
		if !field.IsBool() {
			return false, fmt.Errorf("%w: %q is not a boolean", ErrTypeMismatch, e.path)
		}
		eq := field.Bool() == e.lit.b
		if e.op == "!=" {
			return !eq, nil
		}
		return eq, nil
	case litNull:
		isNull := field.Type == gjson.Null
		if e.op == "!=" {
			return !isNull, nil
		}
		return isNull, nil
	}
	return false, fmt.Errorf("%w: unsupported literal", ErrTypeMismatch)
}

func compareOrdered[T string | float64](op string, a, b T) (bool, error) {
	switch op {
	case "==":
		return a == b, nil
	case "!=":
		return a != b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	}
	return false, fmt.Errorf("%w: operator %q", ErrTypeMismatch, op)
}

func parseLiteral(text string) (literal, error) {
	if len(text) >= 2 {
		if (text[0] == '\'' && text[len(text)-1] == '\'') ||
			(text[0] == '"' && text[len(text)-1] == '"') {
			return literal{kind: litString, str: text[1 : len(text)-1]}, nil
		}
	}
	switch text {
	case "true":
		return literal{kind: litBool, b: true}, nil
	case "false":
		return literal{kind: litBool, b: false}, nil
	case "null", "nil":
		return literal{kind: litNull}, nil
	}
	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return literal{}, fmt.Errorf("unparsable literal %q", text)
	}
	return literal{kind: litNumber, num: num}, nil
}

// Compile-time interface check
var _ dispatch.Condition = (*Expression)(nil)
