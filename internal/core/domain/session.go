package domain

import "time"

// SessionState is the read-only view of a console session's auth state.
type SessionState struct {
	User    *AuthenticatedUser `json:"user"`
	Loading bool               `json:"loading"`
	Error   *string            `json:"error"`
}

// IsAuthenticated is derived from the presence of a user.
func (s SessionState) IsAuthenticated() bool {
	return s.User != nil
}

// UpstreamCookie is a cookie issued by the registry backend. The console keeps
// the backend's cookie session server-side and replays it on later calls.
type UpstreamCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

// SessionRecord is the persisted form of a console session.
type SessionRecord struct {
	ID        string             `json:"id"`
	User      *AuthenticatedUser `json:"user,omitempty"`
	Error     *string            `json:"error,omitempty"`
	Upstream  []UpstreamCookie   `json:"upstream,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewSessionRecord returns the initial state for a console session.
func NewSessionRecord(id string, now time.Time) *SessionRecord {
	return &SessionRecord{ID: id, CreatedAt: now, UpdatedAt: now}
}

// State projects the record into a snapshot. loading comes from the in-flight lock.
func (r *SessionRecord) State(loading bool) SessionState {
	st := SessionState{Loading: loading}
	if r == nil {
		return st
	}
	st.User = r.User.Clone()
	if r.Error != nil {
		msg := *r.Error
		st.Error = &msg
	}
	return st
}
