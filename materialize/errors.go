package materialize

import (
	"errors"
	"fmt"

	"github.com/cayleygraph/quad"
)

var (
	// ErrDangling is matched by errors about nested references missing from a response.
	ErrDangling = errors.New("dangling reference")
	// ErrInconsistent is matched by errors about roots that contradict their shape.
	ErrInconsistent = errors.New("inconsistent root")
)

// Error describes a problem with a single resource of a response.
type Error struct {
	Err       error
	Shape     string
	ID        string
	Predicate quad.IRI
	// Ref is the missing resource for dangling references.
	Ref string
}

func (e *Error) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%v: %s %s -> %s (shape %s)", e.Err, e.ID, e.Predicate, e.Ref, e.Shape)
	}
	return fmt.Sprintf("%v: %s (shape %s)", e.Err, e.ID, e.Shape)
}

func (e *Error) Unwrap() error { return e.Err }

// IsConsistency checks if the error reports a root that contradicts its shape.
func IsConsistency(err error) bool {
	return errors.Is(err, ErrInconsistent)
}
