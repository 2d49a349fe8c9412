// Package checkpoint decorates errors with the file and line of the caller,
// building something similar to a stack trace out of plain wrapped errors.
// Every error attached to a checkpoint stays visible to errors.Is and
// errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

type checkpoint struct {
	err  error
	prev error

	callerOk bool
	file     string
	line     int
}

func newCheckpoint(prev, err error) error {
	_, file, line, ok := runtime.Caller(2)

	return &checkpoint{
		err:  err,
		prev: prev,

		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

// From wraps err in a new checkpoint carrying the caller's position.
// It returns nil if err is nil. io.EOF and io.ErrUnexpectedEOF pass through
// untouched because callers compare them directly
// (https://github.com/golang/go/issues/39155).
func From(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return err
	}
	if err == nil {
		return nil
	}

	return newCheckpoint(err, nil)
}

// Wrap creates a checkpoint from prev and attaches err as an additional
// description. It returns nil if prev is nil, so call sites can wrap
// unconditionally:
//
//	var ErrSomethingSpecial = errors.New("something special went wrong")
//
//	func someFunction() error {
//		err := somethingThatMayFail()
//		return checkpoint.Wrap(err, ErrSomethingSpecial)
//	}
//
// The result matches both errors with errors.Is: the one returned by
// somethingThatMayFail and ErrSomethingSpecial.
// io.EOF passes through untouched, as in From.
func Wrap(prev, err error) error {
	if prev == io.EOF {
		return io.EOF
	}
	if prev == nil {
		return nil
	}

	return newCheckpoint(prev, err)
}

func (e *checkpoint) Error() string {
	// A non-checkpoint at the end of the chain gets the same indentation
	// as the checkpoints before it.
	prevErrString := "<nil>"
	if e.prev != nil {
		prevErrString = e.prev.Error()
	}
	if _, ok := e.prev.(*checkpoint); !ok {
		prevErrString = "File: unknown\n\t" + strings.ReplaceAll(prevErrString, "\n", "\n\t")
	}

	if e.callerOk {
		return fmt.Sprintf("File: %s:%d\n\t%v\n%v", e.file, e.line, e.err, prevErrString)
	}
	return fmt.Sprintf("File: unknown\n\t%v\n%v", e.err, prevErrString)
}

func (e *checkpoint) Unwrap() error {
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	return errors.Is(e.err, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return errors.As(e.err, target)
}
