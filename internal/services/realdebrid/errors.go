package realdebrid

import (
	"errors"
	"fmt"
)

// ErrNoHashes signals a caller error: an availability check was issued with
// an empty hash set. No network call is made.
var ErrNoHashes = errors.New("no hashes to check")

// FailureKind classifies a failed remote operation so callers can branch on
// the kind instead of matching error strings.
type FailureKind string

const (
	KindTimeout           FailureKind = "timeout"
	KindRateLimited       FailureKind = "rate_limited"
	KindMalformedResponse FailureKind = "malformed_response"
	KindAuthFailure       FailureKind = "auth_failure"
	KindUnknown           FailureKind = "unknown"
)

// Failure is the structured error returned by every remote operation.
// Expected conditions (timeouts, server-side rate limiting, malformed
// payloads) surface here rather than crashing the resolution pipeline.
type Failure struct {
	Kind   FailureKind
	Op     string // The operation that failed (e.g. "add_magnet")
	Status int    // HTTP status code, 0 for non-HTTP failures
	Err    error  // Underlying error, if any
}

func (f *Failure) Error() string {
	if f.Status > 0 {
		return fmt.Sprintf("real-debrid %s failed (%s, HTTP %d): %v", f.Op, f.Kind, f.Status, f.Err)
	}
	return fmt.Sprintf("real-debrid %s failed (%s): %v", f.Op, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf extracts the failure kind from an error chain. Non-Failure errors
// report KindUnknown.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}
