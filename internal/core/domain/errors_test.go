package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    *Error
		status int
		kind   Kind
	}{
		{"not found", NotFound(MsgUserNotFound), http.StatusNotFound, KindNotFound},
		{"validation", ValidationFailed(FieldError{Field: "email", Message: "email is required"}), http.StatusBadRequest, KindValidationFailed},
		{"cache", CacheUnavailable(errors.New("dial tcp: refused")), http.StatusInternalServerError, KindCacheUnavailable},
		{"server", ServerFault(errors.New("socket closed")), http.StatusInternalServerError, KindServerFault},
		{"auth collapse", AuthenticationFailed(), http.StatusUnauthorized, KindNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, tc.err.Status)
			}
			if tc.err.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, tc.err.Kind)
			}
		})
	}
}

func TestError_IsMatchesByKind(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", CacheUnavailable(errors.New("timeout")))

	if !errors.Is(wrapped, ErrCacheUnavailable) {
		t.Fatalf("expected wrapped error to match ErrCacheUnavailable")
	}
	if errors.Is(wrapped, ErrServerFault) {
		t.Fatalf("cache error must not match ErrServerFault")
	}
	if !errors.Is(AuthenticationFailed(), ErrNotFound) {
		t.Fatalf("authentication failure keeps the NotFound kind")
	}
}

func TestError_MessageHidesCause(t *testing.T) {
	cause := errors.New("connection pool exhausted on 10.0.0.3:27017")
	err := ServerFault(cause)

	if err.Message != MsgServerError {
		t.Fatalf("unexpected message: %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should stay reachable through Unwrap")
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(errors.New("raw")) != KindServerFault {
		t.Fatalf("untyped errors classify as server faults")
	}
	if KindOf(fmt.Errorf("x: %w", NotFound(MsgUserNotFound))) != KindNotFound {
		t.Fatalf("expected not_found kind")
	}
}

func TestIdentity_SnapshotUsesPlaceholder(t *testing.T) {
	id := &Identity{ID: "1", Username: "newUser", Email: "n@example.com", PasswordHash: "$2a$10$abc", Role: RoleUser}
	snap := id.Snapshot()

	if snap.Password != PasswordPlaceholder {
		t.Fatalf("expected placeholder, got %q", snap.Password)
	}
	if snap.Username != "newUser" || snap.Role != RoleUser || snap.Email != "n@example.com" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
