package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(Forbidden("nope")); got != KindForbidden {
		t.Fatalf("KindOf = %v, want KindForbidden", got)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Fatalf("KindOf(plain) = %v, want KindUnknown", got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Fatalf("KindOf(nil) = %v, want KindUnknown", got)
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("outer context: %w", NotFound("post not found"))
	if !IsKind(err, KindNotFound) {
		t.Fatalf("kind lost through wrapping: %v", err)
	}
	if MessageOf(err) != "post not found" {
		t.Fatalf("message lost through wrapping: %q", MessageOf(err))
	}
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("storage unreachable", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}
	if err.Error() != "storage unreachable: connection refused" {
		t.Fatalf("unexpected rendering: %q", err.Error())
	}
}
