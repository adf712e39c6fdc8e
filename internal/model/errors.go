package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the loading and reshaping pipeline.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindNoInputData        ErrorKind = "no_input_data"
	KindSchemaMismatch     ErrorKind = "schema_mismatch"
	KindMalformedTimestamp ErrorKind = "malformed_timestamp"
	KindMalformedValue     ErrorKind = "malformed_value"
	KindUpstreamFailure    ErrorKind = "upstream_failure"
)

// ErrNoData is matched by errors.Is for every error meaning "nothing to
// process": a missing input directory or one without CSV files.
var ErrNoData = errors.New("no data")

// Error is a pipeline failure tagged with its kind.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches ErrNoData for the no-data kinds, and any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	if target == ErrNoData {
		return e.Kind == KindNotFound || e.Kind == KindNoInputData
	}
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// Errorf builds an *Error of the given kind with a formatted detail.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around err.
func Wrap(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
