// Package cerr implements the core's error taxonomy as concrete Go error
// types, distinguishing recoverable shape conflicts from programmer-error
// invariant violations.
package cerr

import "fmt"

// ShapeError means a payload's shape conflicted with the selection it was
// normalized against (e.g. a scalar where a linked field was expected).
// It fails the enclosing publish with no partial writes retained; callers
// normalize into a fresh overlay and discard it on error.
type ShapeError struct {
	Path string
	Msg  string
}

func (e *ShapeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("shape error: %s", e.Msg)
	}
	return fmt.Sprintf("shape error at %s: %s", e.Path, e.Msg)
}

// NewShape builds a ShapeError rooted at path.
func NewShape(path, format string, args ...interface{}) error {
	return &ShapeError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// InvariantError means the caller violated a programmer contract (writing
// a linked record as a scalar, a polymorphic field missing __typename, an
// unresolved fragment name). These are surfaced synchronously and never
// caught by the core.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated: %s", e.Msg)
}

// NewInvariant builds an InvariantError.
func NewInvariant(format string, args ...interface{}) error {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}

// GCRaceError names the concurrent-GC case of the taxonomy. A Store's GC
// pass runs on the Store's own background goroutine and holds the Store's
// mutex for the whole sweep. The type exists so the taxonomy is nameable;
// nothing in this module constructs one.
type GCRaceError struct{}

func (GCRaceError) Error() string { return "unreachable: concurrent GC" }
