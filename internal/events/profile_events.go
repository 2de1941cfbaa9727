package events

import "time"

// ProfileSynced is emitted after an identity write has been mirrored into the
// owner's profile. Created is true for the first sync.
type ProfileSynced struct {
	ProfileID   string    `json:"profileId"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Created     bool      `json:"created"`
	At          time.Time `json:"at"`
}
