package jareth

import (
	"errors"

	"github.com/jjjachyty/jareth/schema"
)

// Row count failures.  Callers match on these messages, so they keep their
// capitalization and punctuation.
var (
	// ErrNoData is returned when a query expected rows but produced none.
	ErrNoData = errors.New("No data returned from the query.")
	// ErrMultipleRows is returned when a query expected at most one row.
	ErrMultipleRows = errors.New("Multiple rows were not expected.")
	// ErrNoReturnExpected is returned by None when the statement produced rows.
	ErrNoReturnExpected = errors.New("No return data was expected.")
)

// ErrHandleReleased is returned when a Handle is used after the scope that
// received it has ended.
var ErrHandleReleased = errors.New("jareth: handle used outside of its scope")

// ErrUnsupportedScheme is returned by New when no driver is known for the
// connection string's scheme.
var ErrUnsupportedScheme = errors.New("jareth: unsupported connection string scheme")

// QueryError wraps any failure raised while formatting or executing a query.
type QueryError struct {
	// Query is the statement sent to the driver, or the template when
	// formatting failed.
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return "Error executing query: " + e.Err.Error()
}

// OriginalMessage is the message of the wrapped error.
func (e *QueryError) OriginalMessage() string {
	return e.Err.Error()
}

func (e *QueryError) Unwrap() error { return e.Err }

// PropertyError is returned when a template references a parameter that is
// absent from the supplied parameters.
type PropertyError struct {
	Name string
}

func (e *PropertyError) Error() string {
	return "Property '" + e.Name + "' doesn't exist."
}

// DecodeError is returned by schema-validating row mappers.  Its message is
// the first failing path; Errors holds every failure.
type DecodeError struct {
	Errors schema.Errors
}

func (e *DecodeError) Error() string {
	if len(e.Errors) == 0 {
		return "jareth: decode failed"
	}
	return e.Errors[0].Error()
}

// Report returns one line per validation failure.
func (e *DecodeError) Report() []string {
	return e.Errors.Report()
}

func (e *DecodeError) Unwrap() error { return e.Errors }
