package schema

import (
	"errors"
	"fmt"

	"github.com/cayleygraph/quad"
)

var (
	ErrNoProperties  = errors.New("shape has no properties")
	ErrUnknownShape  = errors.New("unknown shape")
	ErrDuplicatePred = errors.New("duplicate predicate")
	ErrConflict      = errors.New("conflicting constraints")
	ErrNoPredicate   = errors.New("property has no predicate")
)

// Error is returned when a shape description is malformed.
type Error struct {
	Shape    string
	Property quad.IRI
	Err      error
	Detail   string
}

func (e *Error) Error() string {
	msg := "shape " + e.Shape
	if e.Property != "" {
		msg += ", property " + e.Property.String()
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += fmt.Sprintf(" (%s)", e.Detail)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsMalformed checks if an error was produced by shape validation.
func IsMalformed(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
