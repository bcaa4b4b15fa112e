// Package coreerr defines the structured error kinds shared by every
// trust.core component, in the same spirit as a typical problem-details
// error wrapper: a short machine-readable kind plus optional detail.
package coreerr

import (
	"errors"
	"fmt"

	"github.com/moogar0880/problems"
)

// Kind is a stable, machine-readable error classification.
type Kind string

// Error kinds from the certificate/CA/trust-graph/propagation surface.
const (
	KindNotReady             Kind = "NOT_READY"
	KindInvalidRequest       Kind = "INVALID_REQUEST"
	KindNotFound             Kind = "NOT_FOUND"
	KindInvalidDuration      Kind = "INVALID_DURATION"
	KindInvalidDID           Kind = "INVALID_DID"
	KindUnsupportedDIDMethod Kind = "UNSUPPORTED_DID_METHOD"
	KindUnsupportedProofType Kind = "UNSUPPORTED_PROOF_TYPE"
	KindBadSignature         Kind = "BAD_SIGNATURE"
	KindNotYetValid          Kind = "NOT_YET_VALID"
	KindExpired              Kind = "EXPIRED"
	KindRevoked              Kind = "REVOKED"
	KindChainBroken          Kind = "CHAIN_BROKEN"
	KindParentInvalid        Kind = "PARENT_INVALID"
	KindUseRevoke            Kind = "USE_REVOKE"
	KindNotAReduction        Kind = "NOT_A_REDUCTION"
	KindStaleOrDuplicate     Kind = "STALE_OR_DUPLICATE"
	KindSubjectKeyMissing    Kind = "SUBJECT_KEY_MISSING"
	KindStoreFailure         Kind = "STORE_FAILURE"
	KindSigningFailure       Kind = "SIGNING_FAILURE"
	KindTransportOffline     Kind = "TRANSPORT_OFFLINE"
	KindTimedOut             Kind = "TIMED_OUT"
	KindCancelled            Kind = "CANCELLED"
)

// Error is the structured error type returned across package boundaries.
type Error struct {
	Kind   Kind
	Detail any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail != nil {
		return fmt.Sprintf("%s: %+v", e.Kind, e.Detail)
	}
	return string(e.Kind)
}

// Is allows errors.Is(err, coreerr.New(KindX)) style comparisons by kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// New creates an Error with no extra detail.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// NewDetails creates an Error carrying machine-readable detail.
func NewDetails(kind Kind, detail any) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Sentinels for errors.Is comparisons against a bare kind.
var (
	ErrNotReady             = New(KindNotReady)
	ErrInvalidRequest       = New(KindInvalidRequest)
	ErrNotFound             = New(KindNotFound)
	ErrInvalidDuration      = New(KindInvalidDuration)
	ErrInvalidDID           = New(KindInvalidDID)
	ErrUnsupportedDIDMethod = New(KindUnsupportedDIDMethod)
	ErrUnsupportedProofType = New(KindUnsupportedProofType)
	ErrBadSignature         = New(KindBadSignature)
	ErrNotYetValid          = New(KindNotYetValid)
	ErrExpired              = New(KindExpired)
	ErrRevoked              = New(KindRevoked)
	ErrChainBroken          = New(KindChainBroken)
	ErrParentInvalid        = New(KindParentInvalid)
	ErrUseRevoke            = New(KindUseRevoke)
	ErrNotAReduction        = New(KindNotAReduction)
	ErrStaleOrDuplicate     = New(KindStaleOrDuplicate)
	ErrSubjectKeyMissing    = New(KindSubjectKeyMissing)
	ErrStoreFailure         = New(KindStoreFailure)
	ErrSigningFailure       = New(KindSigningFailure)
	ErrTransportOffline     = New(KindTransportOffline)
	ErrTimedOut             = New(KindTimedOut)
	ErrCancelled            = New(KindCancelled)
)

// AsProblem projects an Error to an RFC 7807 problem-details document for
// callers that export verification failures externally (e.g. the
// propagation service's web-publication endpoint).
func AsProblem(err error) *problems.Problem {
	var e *Error
	status := 500
	problem := problems.NewStatusProblem(status)
	if errors.As(err, &e) {
		status = httpStatusForKind(e.Kind)
		problem = problems.NewStatusProblem(status)
		problem.Detail = e.Error()
	}
	return problem
}

func httpStatusForKind(k Kind) int {
	switch k {
	case KindNotFound:
		return 404
	case KindNotReady, KindInvalidRequest, KindInvalidDuration, KindInvalidDID, KindUnsupportedDIDMethod,
		KindUnsupportedProofType, KindParentInvalid, KindUseRevoke, KindNotAReduction,
		KindSubjectKeyMissing:
		return 400
	case KindBadSignature, KindNotYetValid, KindExpired, KindRevoked, KindChainBroken:
		return 422
	case KindStaleOrDuplicate:
		return 409
	case KindTransportOffline, KindTimedOut:
		return 503
	case KindCancelled:
		return 499
	default:
		return 500
	}
}
