package dto

import (
	"userauth/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation"
)

type UserResponse struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	FullName string  `json:"fullName"`
	OTP      *string `json:"otp"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		OTP:      u.OneTimeCode,
	}
}

// UpdateUserRequest is a partial update. A field sent as "" is cleared and
// re-derived from the email on save.
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
	FullName *string `json:"fullName,omitempty"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Length(3, 254)),
		validation.Field(&r.Username, validation.Length(0, 100)),
		validation.Field(&r.FullName, validation.Length(0, 100)),
	)
}

type DeleteResponse struct {
	Deleted map[string]int64 `json:"deleted"`
}
