// Package apperr classifies errors by the layer they came from, so the CLI
// can log the kind and the API can map it to an HTTP status.
package apperr

import (
	"errors"
)

// Kind classifies a failure by the layer it came from.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindConfiguration
	KindTransport
	KindConnection
	KindQuery
	KindLookup
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransport:
		return "transport"
	case KindConnection:
		return "connection"
	case KindQuery:
		return "query"
	case KindLookup:
		return "lookup"
	default:
		return "unknown"
	}
}

// Error attaches a Kind to an underlying error. It survives eris wrapping,
// so callers can classify failures with errors.As or KindOf.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with the given kind. A nil err yields nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Configuration marks a bad or missing config value or an invalid feed parameter.
func Configuration(err error) error { return New(KindConfiguration, err) }

// Transport marks a network or HTTP-level failure.
func Transport(err error) error { return New(KindTransport, err) }

// Connection marks an unreachable store or rejected credentials.
func Connection(err error) error { return New(KindConnection, err) }

// Query marks a failed SQL statement.
func Query(err error) error { return New(KindQuery, err) }

// Lookup marks a missing expected field, property or column.
func Lookup(err error) error { return New(KindLookup, err) }

// KindOf returns the kind of the outermost classified error in err's chain,
// or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
