package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyRunning is an error returned when run can't be started because previous run is not finished yet.
	ErrAlreadyRunning = errors.New("reconciliation already running for this vendor")
	// ErrUnknownVendor is returned when vendor has no profile in registry.
	ErrUnknownVendor = errors.New("unknown vendor")
	// ErrTransient marks transport errors worth retrying (network, timeout, 5xx).
	ErrTransient = errors.New("transient transport error")
	// ErrPermanent marks transport errors which must abort vendor run (auth, malformed response).
	ErrPermanent = errors.New("permanent transport error")
	// ErrRetriesExhausted is returned when transient errors persisted through all attempts.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// ErrNormalization is matched by every NormalizationError.
	ErrNormalization = errors.New("normalization failed")
	// ErrNoMatch is returned when no matcher tier found a candidate.
	ErrNoMatch = errors.New("no matching product")
	// ErrAmbiguousMatch is returned when matcher tiers found only multiple candidates.
	ErrAmbiguousMatch = errors.New("ambiguous product match")
	// ErrConflict is returned by storage when unique constraint was violated.
	ErrConflict = errors.New("unique constraint conflict")
	// ErrNotFound is returned by storage when requested entity doesn't exist.
	ErrNotFound = errors.New("not found")
)

// TransportError wraps errors from vendor transports with their retry class.
type TransportError struct {
	Op        string
	Permanent bool
	Err       error
}

// Error implements error interface.
func (e *TransportError) Error() string {
	class := "transient"
	if e.Permanent {
		class = "permanent"
	}
	return fmt.Sprintf("%s %s error: %v", class, e.Op, e.Err)
}

// Unwrap returns wrapped error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports ErrPermanent or ErrTransient depending on error class.
func (e *TransportError) Is(target error) bool {
	if e.Permanent {
		return target == ErrPermanent
	}
	return target == ErrTransient
}

// Transient returns TransportError which should be retried.
func Transient(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// Permanent returns TransportError which shouldn't be retried.
func Permanent(op string, err error) *TransportError {
	return &TransportError{Op: op, Permanent: true, Err: err}
}

// IsPermanent reports whether err must not be retried.
// Context cancellation is treated as permanent.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent) || errors.Is(err, context.Canceled)
}

// NormalizationError describes vendor record rejected by normalizer.
type NormalizationError struct {
	VendorID string
	Field    string
	Reason   string
}

// Error implements error interface.
func (e *NormalizationError) Error() string {
	return fmt.Sprintf("can't normalize %s record: field %q %s", e.VendorID, e.Field, e.Reason)
}

// Is makes NormalizationError match ErrNormalization.
func (e *NormalizationError) Is(target error) bool {
	return target == ErrNormalization
}

// MatchError describes vendor record which couldn't be matched to exactly one product.
type MatchError struct {
	VendorKey  string
	Candidates []string
}

// Error implements error interface.
func (e *MatchError) Error() string {
	if len(e.Candidates) > 1 {
		return fmt.Sprintf("ambiguous match for %q: %s", e.VendorKey, strings.Join(e.Candidates, ", "))
	}
	return fmt.Sprintf("no match for %q", e.VendorKey)
}

// Is makes MatchError match ErrAmbiguousMatch or ErrNoMatch.
func (e *MatchError) Is(target error) bool {
	if len(e.Candidates) > 1 {
		return target == ErrAmbiguousMatch
	}
	return target == ErrNoMatch
}

// Reason returns short machine readable reason stored with unmatched records.
func (e *MatchError) Reason() string {
	if len(e.Candidates) > 1 {
		return "ambiguous"
	}
	return "no_match"
}
