package domain

import "time"

// AuthEventType names something that happened to a session.
type AuthEventType string

const (
	EventLoginSucceeded   AuthEventType = "login_succeeded"
	EventLoginFailed      AuthEventType = "login_failed"
	EventRegistered       AuthEventType = "registered"
	EventSessionRefreshed AuthEventType = "session_refreshed"
	EventLoggedOut        AuthEventType = "logged_out"
)

// AuthEvent is an audit record of an authentication-related action.
type AuthEvent struct {
	Username  string
	Type      AuthEventType
	Reason    string // optional, never contains credentials
	Timestamp time.Time
}
