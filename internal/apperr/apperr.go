// Package apperr implements the error taxonomy of the skill-exchange
// core (spec §7): a small closed set of kinds that the HTTP layer maps
// to status codes, and that services use to signal precondition
// failures distinctly from unexpected faults.
package apperr

import "fmt"

// Kind is one of the seven taxonomy buckets from spec §7.
type Kind string

const (
	NotFound              Kind = "not_found"
	Conflict              Kind = "conflict"
	Forbidden             Kind = "forbidden"
	Validation            Kind = "validation"
	InsufficientFunds     Kind = "insufficient_funds"
	DependencyUnavailable Kind = "dependency_unavailable"
	Transient             Kind = "transient"
)

// Error is the core's single error type. Services return *Error for
// every precondition failure; anything else is treated as an
// unexpected fault (mapped to 5xx) by the HTTP layer.
type Error struct {
	Kind    Kind
	Message string
	Detail  map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func new(kind Kind, msg string, detail map[string]any) *Error {
	return &Error{Kind: kind, Message: msg, Detail: detail}
}

func NotFoundf(format string, args ...any) *Error {
	return new(NotFound, fmt.Sprintf(format, args...), nil)
}

func Conflictf(format string, args ...any) *Error {
	return new(Conflict, fmt.Sprintf(format, args...), nil)
}

func Forbiddenf(format string, args ...any) *Error {
	return new(Forbidden, fmt.Sprintf(format, args...), nil)
}

func Validationf(format string, args ...any) *Error {
	return new(Validation, fmt.Sprintf(format, args...), nil)
}

// InsufficientFundsErr reports a denied spend, carrying the amounts
// the HTTP layer is required to surface (spec §7).
func InsufficientFundsErr(required, available int) *Error {
	return &Error{
		Kind:    InsufficientFunds,
		Message: "insufficient points",
		Detail:  map[string]any{"required": required, "available": available},
	}
}

func DependencyUnavailablef(err error, format string, args ...any) *Error {
	e := new(DependencyUnavailable, fmt.Sprintf(format, args...), nil)
	e.Err = err
	return e
}

func Transientf(err error, format string, args ...any) *Error {
	e := new(Transient, fmt.Sprintf(format, args...), nil)
	e.Err = err
	return e
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error, and false otherwise.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

// As is a thin indirection over errors.As kept local so callers only
// import this package for taxonomy checks.
func As(err error, target **Error) bool {
	for err != nil {
		if ae, ok := err.(*Error); ok {
			*target = ae
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
