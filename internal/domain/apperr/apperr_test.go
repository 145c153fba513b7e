package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	notFound := New(KindNotFound, "loan not found")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain error", errors.New("boom"), KindInternal},
		{"sentinel", notFound, KindNotFound},
		{"wrapped sentinel", fmt.Errorf("get: %w", notFound), KindNotFound},
		{"wrap with cause", Wrap(KindConflict, "duplicate", errors.New("1062")), KindConflict},
		{"nil", nil, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessage_HidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:3306: refused")
	err := Wrap(KindConflict, "email already registered", cause)

	if got := Message(err); got != "email already registered" {
		t.Fatalf("Message = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not reachable through Unwrap")
	}
	if got := Message(cause); got != "internal error" {
		t.Fatalf("Message(unclassified) = %q", got)
	}
}

func TestSentinelIdentity(t *testing.T) {
	err := fmt.Errorf("gate: %w", ErrForbidden)
	if !errors.Is(err, ErrForbidden) {
		t.Fatal("errors.Is should match the sentinel")
	}
	if errors.Is(err, ErrUnauthenticated) {
		t.Fatal("errors.Is matched the wrong sentinel")
	}
}
