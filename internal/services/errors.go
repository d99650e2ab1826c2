// Package services defines the business logic for feedback records and the
// dashboard aggregation. This file centralizes the service-level error
// taxonomy so that outcomes are typed values checked by callers; errors are
// never used for internal control flow, nothing is auto-corrected, and no
// default is substituted for invalid input.
//
// Translation into HTTP status codes is performed at the handler layer.
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated is returned when an operation requiring an identity
	// is attempted without one.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when an authenticated caller's role set lacks
	// permission for the requested operation.
	ErrForbidden = errors.New("operation not permitted for role")

	// ErrRecordNotFound indicates that the requested record does not exist or
	// is not visible within the caller's scope. The two cases are deliberately
	// indistinguishable so out-of-scope record existence cannot be probed.
	ErrRecordNotFound = errors.New("feedback record not found")

	// ErrStoreUnavailable indicates the underlying store could not be
	// reached. Writes are never retried on this error (a retry could double a
	// submission); read-only operations are retried once transparently before
	// it surfaces.
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// ValidationError reports every field constraint violated by a create input,
// not just the first. Nothing is persisted when it is returned; the caller
// must correct the input and resubmit.
type ValidationError struct {
	// Fields maps each violated field name to a human-readable reason.
	Fields map[string]string
}

// Error implements error with a deterministic, field-sorted message.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("invalid input: ")
	for i, f := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", f, e.Fields[f])
	}
	return b.String()
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
