// Package errors provides the error helpers used throughout js5. It re-exports
// github.com/pkg/errors so call sites get stack traces on wrapping, and adds the
// standard library's Is/As for sentinel matching.
package errors

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// New creates a new error based on message. Wrapped so that this package does
// not appear in the stack trace.
var New = errors.New

// Errorf creates an error based on a format string and values. Wrapped so that
// this package does not appear in the stack trace.
var Errorf = errors.Errorf

// Wrap wraps an error retrieved from outside of js5. Wrapped so that this
// package does not appear in the stack trace.
var Wrap = errors.Wrap

// Wrapf returns an error annotating err with the format specifier. If err is
// nil, Wrapf returns nil.
var Wrapf = errors.Wrapf

// WithMessage annotates err with a new message. If err is nil, WithMessage
// returns nil.
var WithMessage = errors.WithMessage

// WithMessagef annotates err with the format specifier. If err is nil,
// WithMessagef returns nil.
var WithMessagef = errors.WithMessagef

var WithStack = errors.WithStack

// Cause returns the cause of an error. It will also unwrap certain errors,
// e.g. *os.PathError.
func Cause(err error) error {
	return errors.Cause(err)
}

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }
