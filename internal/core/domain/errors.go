package domain

import (
	"errors"
	"net/http"
)

// Kind identifies one of the four failure classes that may cross the
// repository → service boundary.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindValidationFailed Kind = "validation_failed"
	KindCacheUnavailable Kind = "cache_unavailable"
	KindServerFault      Kind = "server_fault"
)

// User-visible messages. Clients only ever see one of these.
const (
	MsgAuthenticationFailed = "Authentication failed"
	MsgUserNotFound         = "User not found"
	MsgValidationFailed     = "Validation failed"
	MsgCacheUnavailable     = "Session cache unavailable"
	MsgServerError          = "Internal server error"
	MsgUnauthorized         = "Unauthorized"
	MsgForbidden            = "Forbidden"
	MsgUsernameTaken        = "username is already taken"
	MsgEmailTaken           = "email is already registered"
	MsgEmptyPatch           = "at least one field must be provided"
	MsgLoginSucceeded       = "Login successful"
	MsgLogoutSucceeded      = "Logout successful"
	MsgRegistered           = "User registered"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed failure carried across layers. Message is safe to show
// to clients; the wrapped cause is for logs only.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.cause.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrValidationFailed = &Error{Kind: KindValidationFailed}
	ErrCacheUnavailable = &Error{Kind: KindCacheUnavailable}
	ErrServerFault      = &Error{Kind: KindServerFault}
)

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: msg}
}

func ValidationFailed(fields ...FieldError) *Error {
	return &Error{
		Kind:    KindValidationFailed,
		Status:  http.StatusBadRequest,
		Message: MsgValidationFailed,
		Fields:  fields,
	}
}

// CacheUnavailable wraps a session cache driver failure.
func CacheUnavailable(cause error) *Error {
	return &Error{
		Kind:    KindCacheUnavailable,
		Status:  http.StatusInternalServerError,
		Message: MsgCacheUnavailable,
		cause:   cause,
	}
}

// ServerFault wraps a persistence or other infrastructure failure.
func ServerFault(cause error) *Error {
	return &Error{
		Kind:    KindServerFault,
		Status:  http.StatusInternalServerError,
		Message: MsgServerError,
		cause:   cause,
	}
}

// AuthenticationFailed is the login flow's collapse of "unknown username"
// and "wrong password" into one outcome. It keeps the NotFound kind but is
// rendered as 401 with a single message, so responses cannot be used to
// enumerate accounts.
func AuthenticationFailed() *Error {
	return &Error{
		Kind:    KindNotFound,
		Status:  http.StatusUnauthorized,
		Message: MsgAuthenticationFailed,
	}
}

// AsError returns the typed error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or ServerFault for untyped errors.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindServerFault
}
