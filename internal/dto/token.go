package dto

import "time"

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type VerifyRequest struct {
	Token string `json:"token"`
}

// VerifyResponse is the decoded payload of a valid access token.
type VerifyResponse struct {
	Valid     bool      `json:"valid"`
	Subject   string    `json:"sub"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	SessionID string    `json:"sid,omitempty"`
	TokenID   string    `json:"jti"`
	ExpiresAt time.Time `json:"expiresAt"`
}
