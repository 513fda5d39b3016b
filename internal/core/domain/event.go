package domain

import "time"

// AuthEventKind names an auditable authentication action.
type AuthEventKind string

const (
	EventLogin          AuthEventKind = "login"
	EventLogout         AuthEventKind = "logout"
	EventPasswordChange AuthEventKind = "password_change"
	EventResetRequest   AuthEventKind = "password_reset_request"
	EventResetConfirm   AuthEventKind = "password_reset_confirm"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuthEvent is one entry of the authentication audit trail.
type AuthEvent struct {
	SessionID  string
	Kind       AuthEventKind
	Username   string
	Role       Role
	Outcome    string
	Detail     string
	OccurredAt time.Time
}
