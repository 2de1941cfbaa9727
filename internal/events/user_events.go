package events

import "time"

type UserRegistered struct {
	UserID string    `json:"userId"`
	Email  string    `json:"email"`
	At     time.Time `json:"at"`
}

type UserUpdated struct {
	UserID   string    `json:"userId"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	FullName string    `json:"fullName"`
	At       time.Time `json:"at"`
}

type UserDeleted struct {
	UserID  string           `json:"userId"`
	Deleted map[string]int64 `json:"deleted"`
	At      time.Time        `json:"at"`
}
