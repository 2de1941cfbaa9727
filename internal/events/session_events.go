package events

import "time"

// SessionRevoked is published once per revocation. SessionID is empty when
// every session of the user was revoked at once.
type SessionRevoked struct {
	SessionID string    `json:"sessionId,omitempty"`
	UserID    string    `json:"userId"`
	Reason    string    `json:"reason"` // "logout" | "email_changed"
	At        time.Time `json:"at"`
}
