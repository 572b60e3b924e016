package model

import (
	"errors"

	"github.com/cayleygraph/rdfobjects/endpoint"
	"github.com/cayleygraph/rdfobjects/materialize"
	"github.com/cayleygraph/rdfobjects/query/compiler"
)

// ErrNotFound is matched by errors about identifiers without a root resource.
var ErrNotFound = errors.New("object not found")

// NotFoundError is returned by Get when the identifier selects no root.
type NotFoundError struct {
	ID    string
	Shape string
}

func (e *NotFoundError) Error() string {
	return ErrNotFound.Error() + ": " + e.ID + " (shape " + e.Shape + ")"
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IsNotFound checks if the error reports a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Re-exported checks, so callers of the model do not need to import every
// package in the pipeline.
var (
	IsCompilation = compiler.IsCompilation
	IsTransport   = endpoint.IsTransport
	IsConsistency = materialize.IsConsistency
)
