package domain

import "time"

const (
	EventLogin         = "login"
	EventProfileUpdate = "profile-update"
)

// SessionEvent is broadcast on the signal channel whenever a session-visible
// identity change happens, so settling pages can react without polling.
type SessionEvent struct {
	Type      string    `json:"type"`
	User      Snapshot  `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}
