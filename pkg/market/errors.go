package market

import (
	"errors"
	"fmt"
)

// FailureKind classifies why an upstream fetch failed.
type FailureKind string

const (
	KindUnknown FailureKind = "unknown"
	KindNetwork FailureKind = "network" // transport or context error
	KindStatus  FailureKind = "status"  // non-2xx response
	KindDecode  FailureKind = "decode"  // body unreadable or not the expected JSON
	KindField   FailureKind = "field"   // required field missing or malformed
)

// ErrFieldMissing is wrapped by field failures for absent payload entries.
var ErrFieldMissing = errors.New("field missing")

// FetchError describes a failed upstream call.
type FetchError struct {
	Source string
	Kind   FailureKind
	Status int // HTTP status for KindStatus
	Err    error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	source := e.Source
	if source == "" {
		source = "upstream"
	}
	switch {
	case e.Kind == KindStatus && e.Err != nil:
		return fmt.Sprintf("%s: http status %d: %v", source, e.Status, e.Err)
	case e.Kind == KindStatus:
		return fmt.Sprintf("%s: http status %d", source, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s failure: %v", source, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s failure", source, e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewFetchError builds a FetchError for the given source and kind.
func NewFetchError(source string, kind FailureKind, err error) *FetchError {
	return &FetchError{Source: source, Kind: kind, Err: err}
}

// FieldError reports a missing or malformed payload field.
func FieldError(source, format string, args ...any) *FetchError {
	return &FetchError{Source: source, Kind: KindField, Err: fmt.Errorf(format, args...)}
}
