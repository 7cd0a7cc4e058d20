package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrCapabilityDenied is reported when authorization to read positions
	// was refused
	ErrCapabilityDenied = errors.New("capability denied")

	// ErrSourceUnavailable is reported for a source that is disabled or could
	// not be queried
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSubscriptionFailure is reported for a source whose feed could not be
	// opened
	ErrSubscriptionFailure = errors.New("subscription failure")

	// ErrSessionStarted is returned when a Session is started more than once
	ErrSessionStarted = errors.New("session already started")
)

// SourceError ties an error to the source it happened on
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func sourceError(source string, kind error, cause error) *SourceError {
	if cause == nil {
		return &SourceError{Source: source, Err: kind}
	}

	return &SourceError{Source: source, Err: fmt.Errorf("%w: %v", kind, cause)}
}
