package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidConfiguration indicates bad construction-time parameters:
	// chunking bounds, an empty tenant identifier, a missing capability.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidArgument indicates a bad per-call argument such as an
	// out-of-range top_k.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates a requested composite id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrProviderUnavailable indicates an external capability
	// (embedding, rerank, store transport) failed.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// ProviderError wraps a transport or protocol failure from an external
// capability. It matches ErrProviderUnavailable under errors.Is.
type ProviderError struct {
	// Provider names the failing capability, e.g. "openai" or "cohere".
	Provider string

	// Err is the underlying cause.
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is reports ErrProviderUnavailable so callers can test the taxonomy
// class without knowing the concrete provider.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

// PartialFailureError reports a batch ingest where some documents
// committed and others did not. Committed carries the composite ids that
// made it into both stores so the caller can retry only the failed subset.
type PartialFailureError struct {
	// Committed lists composite ids fully written to both stores.
	Committed []string

	// Failures maps composite id to the error that rolled it back.
	Failures map[string]error
}

func (e *PartialFailureError) Error() string {
	failed := make([]string, 0, len(e.Failures))
	for id := range e.Failures {
		failed = append(failed, id)
	}
	return fmt.Sprintf("partial ingest failure: %d committed, failed: %s",
		len(e.Committed), strings.Join(failed, ", "))
}

// Unwrap exposes the underlying failures for errors.Is / errors.As.
func (e *PartialFailureError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, err := range e.Failures {
		errs = append(errs, err)
	}
	return errs
}
