// Package failure classifies the errors produced by vendor calls.
//
// Every error that leaves a command invocation or an API client carries a
// Kind. Callers branch on the Kind, never on the text of a vendor message.
package failure // import "infraglue.org/failure"

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the category of a failure.
type Kind int

const (
	// Other is any error that was not produced by this package.
	Other Kind = iota
	// Command is a non-zero exit from an external program.
	Command
	// Transport is a network or API level error.
	Transport
	// NotFound means the addressed entity does not exist.
	NotFound
	// Validation is an invalid caller-supplied parameter.
	Validation
)

func (k Kind) String() string {
	switch k {
	case Command:
		return "command failure"
	case Transport:
		return "transport failure"
	case NotFound:
		return "not found"
	case Validation:
		return "validation failure"
	}
	return "error"
}

// Error is a classified error. Op names the operation that failed, e.g.
// "runmqsc" or "GET /mgmt/tm/gtm/pool/a".
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Cause implements the github.com/pkg/errors causer interface.
func (e *Error) Cause() error { return e.Err }

func (e *Error) Unwrap() error { return e.Err }

// Wrap classifies err as kind. A nil err returns nil.
func Wrap(kind Kind, err error, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func newf(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

func Commandf(op, format string, args ...interface{}) error {
	return newf(Command, op, format, args...)
}

func Transportf(op, format string, args ...interface{}) error {
	return newf(Transport, op, format, args...)
}

func NotFoundf(op, format string, args ...interface{}) error {
	return newf(NotFound, op, format, args...)
}

func Validationf(op, format string, args ...interface{}) error {
	return newf(Validation, op, format, args...)
}

// KindOf returns the Kind of the outermost classified error in err's chain,
// or Other.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Other
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Presence is the outcome of an existence check.
type Presence int

const (
	Unknown Presence = iota
	Found
	NotPresent
)

func (p Presence) String() string {
	switch p {
	case Found:
		return "found"
	case NotPresent:
		return "not found"
	}
	return "unknown"
}

// Classify turns the error of a lookup call into a Presence. A nil error is
// Found and a NotFound error is NotPresent; both return a nil error. Any
// other error is returned unchanged with Unknown.
func Classify(err error) (Presence, error) {
	switch {
	case err == nil:
		return Found, nil
	case Is(err, NotFound):
		return NotPresent, nil
	}
	return Unknown, err
}
