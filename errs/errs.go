// Package errs defines the error categories shared by the pipeline.
//
// Callers match a category with errors.Is:
//
//	if errors.Is(err, errs.Validation) { skip the sample }
//
// Every *Error matches its own Kind, and Unwrap exposes the cause so
// sentinel errors further down the chain stay reachable.
package errs

import (
	"errors"
	"fmt"
)

// Kind is an error category.
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	// Validation marks malformed input: label matrix, text/point mismatch, empty strokes.
	Validation Kind = "validation error"
	// Data marks missing or corrupt persisted data.
	Data Kind = "data error"
	// Configuration marks bad or missing configuration.
	Configuration Kind = "configuration error"
	// Model marks failures of the sequence model or of its input contract.
	Model Kind = "model error"
	// Generation marks a failed decode, such as NaN offsets.
	Generation Kind = "generation error"
)

// Error is a categorized error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// E builds an *Error. err may be nil.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an *Error from a format string.
func Errorf(kind Kind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil && e.Op == "":
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the category of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the category of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
