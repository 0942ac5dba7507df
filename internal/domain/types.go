package domain

import "time"

type SessionID string
type MessageID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultSessionTitle is the title of a session that has no user message yet.
const DefaultSessionTitle = "New Chat"

// Timestamp is a point in time expressed in Unix milliseconds, the unit the
// web client persists.
type Timestamp = int64

// ToTimestamp converts t to Unix milliseconds.
func ToTimestamp(t time.Time) Timestamp {
	return t.UnixMilli()
}

// FromTimestamp converts Unix milliseconds back to a time.Time.
func FromTimestamp(ts Timestamp) time.Time {
	return time.UnixMilli(ts)
}
