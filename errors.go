package valobj

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation          = errors.New("invalid value")
	ErrNotFound            = errors.New("the requested entity could not be found")
	ErrDB                  = errors.New("an error occured with the DB")
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrDecodingFailure     = errors.New("field could not be decoded from storage format")
)

// Error is a typed error returned by functions in valobj and its sub-packages.
// It contains both a message explaining what happened as well as one or more
// error values it considers to be its causes. Calling errors.Is on an Error
// along with any error it holds as one of its causes will return true, so
// failure conditions can be checked without manual typecasting.
//
// If Error has at least one cause defined, the result of calling Error.Error()
// will be its primary message with the result of calling Error() on its first
// cause appended to it.
//
// Error should not be used directly; call NewError to create one.
type Error struct {
	msg   string
	cause []error
}

// Error returns the message defined for the Error, concatenated with the result
// of calling Error() on its first cause if one is defined. If no message was
// given but there is at least one cause, the result of calling Error() on the
// first cause is returned.
func (e Error) Error() string {
	if e.msg == "" && e.cause != nil {
		return e.cause[0].Error()
	}

	if e.cause != nil {
		return e.msg + ": " + e.cause[0].Error()
	}

	return e.msg
}

// Unwrap returns the causes of Error. The return value will be nil if no causes
// were defined for it.
func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

// Is returns whether Error either Is itself the given target error, or one of
// its causes is.
func (e Error) Is(target error) bool {
	if errTarget, ok := target.(Error); ok {
		if e.msg == errTarget.msg && len(e.cause) == len(errTarget.cause) {
			allCausesEqual := true
			for i := range e.cause {
				if e.cause[i] != errTarget.cause[i] {
					allCausesEqual = false
					break
				}
			}
			if allCausesEqual {
				return true
			}
		}
	}

	for i := range e.cause {
		if sErr, ok := e.cause[i].(Error); ok {
			if sErr.Is(target) {
				return true
			}
		} else if e.cause[i] == target {
			return true
		}
	}
	return false
}

// NewError creates a new Error with the given message, along with any errors it
// should wrap as its causes. Providing cause errors is not required, but will
// cause it to return true when it is checked against that error via a call to
// errors.Is.
func NewError(msg string, causes ...error) Error {
	err := Error{msg: msg}
	if len(causes) > 0 {
		err.cause = make([]error, len(causes))
		copy(err.cause, causes)
	}
	return err
}

// WrapDBError creates a new Error that wraps the given error as a cause and
// automatically adds ErrDB as another cause. A user-set message may be provided
// if desired with msg, but it may be left out.
//
// Engine-specific errors should already have been converted by the engine
// package (see db/sqlite and db/postgres) so that, e.g., a uniqueness failure
// returns true for errors.Is(err, ErrConstraintViolation).
func WrapDBError(err error, msg ...any) Error {
	var errMsg string
	if len(msg) > 0 {
		errMsg = fmt.Sprint(msg...)
	}

	return Error{
		msg:   errMsg,
		cause: []error{err, ErrDB},
	}
}

// WrapDBErrorf is WrapDBError with a formatted message.
func WrapDBErrorf(err error, format string, a ...any) Error {
	return Error{
		msg:   fmt.Sprintf(format, a...),
		cause: []error{err, ErrDB},
	}
}

// ValidationError is returned when a value object or one of the records built
// from value objects is given empty or malformed input. It always matches
// ErrValidation with errors.Is.
//
// Field is the dotted path of the offending field, e.g. "id" or "email.value".
// It may be empty when the failing value is not part of a larger structure.
type ValidationError struct {
	Field  string
	Reason string

	cause error
}

// NewValidationError creates a ValidationError. If cause is given, the first
// one is retained and can be matched with errors.Is and errors.As.
func NewValidationError(field, reason string, cause ...error) ValidationError {
	ve := ValidationError{Field: field, Reason: reason}
	if len(cause) > 0 {
		ve.cause = cause[0]
	}
	return ve
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e ValidationError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrValidation, e.cause}
	}
	return []error{ErrValidation}
}

// Under returns a copy of e whose Field is nested under parent.
func (e ValidationError) Under(parent string) ValidationError {
	parent = strings.TrimSuffix(parent, ".")
	if parent == "" {
		return e
	}
	if e.Field == "" {
		e.Field = parent
	} else {
		e.Field = parent + "." + e.Field
	}
	return e
}

// AtField nests err under the given field if it is a ValidationError. Any other
// error is returned unchanged.
func AtField(field string, err error) error {
	var ve ValidationError
	if errors.As(err, &ve) {
		return ve.Under(field)
	}
	return err
}
