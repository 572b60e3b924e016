package compiler

import (
	"errors"
	"fmt"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/rdfobjects/schema"
)

var (
	ErrNoRegistry     = errors.New("no shape registry")
	ErrNegativeLimit  = errors.New("limit must not be negative")
	ErrNegativeOffset = errors.New("offset must not be negative")
	ErrInvalidID      = errors.New("identifier is not a valid IRI")
)

// IDError reports an identifier that cannot be placed in a query.
type IDError struct {
	ID quad.IRI
}

func (e *IDError) Error() string { return fmt.Sprintf("%v: %q", ErrInvalidID, string(e.ID)) }

func (e *IDError) Is(target error) bool { return target == ErrInvalidID }

// Error is returned when a query cannot be compiled.
type Error struct {
	Shape string
	Err   error
}

func (e *Error) Error() string {
	if e.Shape == "" {
		return "compile: " + e.Err.Error()
	}
	return "compile " + e.Shape + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// IsCompilation checks if the error is caused by a malformed shape or an
// invalid request. Such errors are never worth retrying.
func IsCompilation(err error) bool {
	var e *Error
	return errors.As(err, &e) || schema.IsMalformed(err)
}
