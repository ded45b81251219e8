// Package errs defines the normalized error taxonomy exposed by the
// orchestration core. Every provider- or store-specific failure is mapped to
// exactly one Kind before it leaves an orchestrator; raw upstream errors are
// kept as wrapped causes for logs and never reach response bodies.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a provider-agnostic failure category.
type Kind string

const (
	InvalidCredentials Kind = "invalid_credentials"
	NotFound           Kind = "user_not_found"
	ChallengeRequired  Kind = "challenge_required"
	WeakPassword       Kind = "weak_password"
	DuplicateIdentity  Kind = "duplicate_identity"
	DuplicateAttribute Kind = "duplicate_attribute"
	InvalidAttributes  Kind = "invalid_attributes"
	PartialCreate      Kind = "partial_create_failure"
	UpstreamAuth       Kind = "upstream_auth_error"
	UpstreamIdentity   Kind = "upstream_identity_error"
	PermissionDenied   Kind = "permission_denied"
)

// Error carries a normalized kind, a stable caller-facing message and the
// wrapped upstream cause. ExternalID is set only for PartialCreate so an
// operator or reconciliation job can address the orphaned provider identity.
type Error struct {
	Kind       Kind
	Message    string
	ExternalID string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, errs.New(kind, "")) match on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds a normalized error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a normalized error preserving the upstream cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// PartialCreateError reports a provider identity that exists without a local
// record. The external id identifies the orphan.
func PartialCreateError(externalID string, cause error) *Error {
	return &Error{
		Kind:       PartialCreate,
		Message:    "identity registered but local record was not persisted",
		ExternalID: externalID,
		Cause:      cause,
	}
}

// KindOf returns the normalized kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err normalizes to kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
