package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfAndMessage(t *testing.T) {
	cause := errors.New("driver: connection reset")

	tests := []struct {
		name     string
		err      error
		kind     Kind
		message  string
		unwrapTo error
	}{
		{"not found", NotFound("user %d not found", 3), KindNotFound, "user 3 not found", nil},
		{"wrapped by fmt", fmt.Errorf("send: %w", Conflict("already friends")), KindConflict, "already friends", nil},
		{"wrap keeps cause", Wrap(KindInternal, cause, "failed to load"), KindInternal, "failed to load", cause},
		{"plain error", cause, KindInternal, "fallback", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.kind {
				t.Errorf("KindOf() = %v, want %v", got, tt.kind)
			}
			if got := Message(tt.err, "fallback"); got != tt.message {
				t.Errorf("Message() = %q, want %q", got, tt.message)
			}
			if tt.unwrapTo != nil && !errors.Is(tt.err, tt.unwrapTo) {
				t.Errorf("errors.Is(%v, cause) = false", tt.err)
			}
		})
	}
}

func TestIs(t *testing.T) {
	if Is(nil, KindInternal) {
		t.Error("Is(nil) should be false")
	}
	if !Is(Forbidden("no"), KindForbidden) {
		t.Error("Is(Forbidden, KindForbidden) = false")
	}
	if Is(Unavailable("down"), KindNotFound) {
		t.Error("Is(Unavailable, KindNotFound) = true")
	}
	if got := KindUnavailable.String(); got != "unavailable" {
		t.Errorf("String() = %q", got)
	}
}
