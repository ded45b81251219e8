package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfUnwrapsNestedErrors(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("create user: %w", Wrap(UpstreamIdentity, "identity provider unavailable", cause))

	if got := KindOf(err); got != UpstreamIdentity {
		t.Fatalf("KindOf = %q, want %q", got, UpstreamIdentity)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("wrapped cause was lost")
	}
}

func TestIsMatchesOnKind(t *testing.T) {
	err := New(NotFound, "user not found")
	if !errors.Is(err, New(NotFound, "")) {
		t.Fatalf("errors.Is should match on kind")
	}
	if errors.Is(err, New(DuplicateIdentity, "")) {
		t.Fatalf("errors.Is matched a different kind")
	}
}

func TestPartialCreateCarriesExternalID(t *testing.T) {
	err := PartialCreateError("sub-42", errors.New("unique violation"))

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *errs.Error")
	}
	if e.ExternalID != "sub-42" {
		t.Fatalf("ExternalID = %q, want sub-42", e.ExternalID)
	}
	if e.Kind != PartialCreate {
		t.Fatalf("Kind = %q, want %q", e.Kind, PartialCreate)
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != "" {
		t.Fatalf("KindOf plain error = %q, want empty", got)
	}
}
