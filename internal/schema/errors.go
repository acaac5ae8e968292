package schema

import (
	"errors"
	"strings"
)

// Error kinds. Every failure surfaced by the sync run wraps one of these.
var (
	ErrConnection    = errors.New("connection failure")
	ErrIntrospection = errors.New("introspection failure")
	ErrInvariant     = errors.New("invariant violation")
	ErrOutputWrite   = errors.New("output write failure")
)

// Error attaches the offending table and object (column, index or
// constraint) to an error kind.
type Error struct {
	Kind   error
	Table  string
	Object string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Table != "" {
		b.WriteString(" (table ")
		b.WriteString(e.Table)
		if e.Object != "" {
			b.WriteString(", ")
			b.WriteString(e.Object)
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

// Invariant builds an ErrInvariant error for table/object.
func Invariant(table, object, msg string) error {
	return &Error{Kind: ErrInvariant, Table: table, Object: object, Err: errors.New(msg)}
}

// Introspection wraps a catalog query failure for table.
func Introspection(table string, err error) error {
	return &Error{Kind: ErrIntrospection, Table: table, Err: err}
}
