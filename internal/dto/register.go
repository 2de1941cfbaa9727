package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// RegisterRequest mirrors the registration form. Username is optional and is
// kept as the identity's full name; the login username always comes from the
// email local part.
type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254)),
		validation.Field(&r.Username, validation.Length(0, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(0, 128)),
		validation.Field(&r.Password2, validation.Required),
	)
}

type RegisterResponse struct {
	User    UserResponse    `json:"user"`
	Profile ProfileResponse `json:"profile"`
}
