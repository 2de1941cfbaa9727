package dto

import (
	"time"

	"userauth/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation"
)

type ProfileResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Avatar      string    `json:"avatar"`
	Country     *string   `json:"country"`
	Bio         *string   `json:"bio"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewProfileResponse(p *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:          p.ID.String(),
		UserID:      p.UserID.String(),
		DisplayName: p.DisplayName,
		Avatar:      p.Avatar,
		Country:     p.Country,
		Bio:         p.Bio,
		CreatedAt:   p.CreatedAt,
	}
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
	Country     *string `json:"country,omitempty"`
	Bio         *string `json:"bio,omitempty"`
}

func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DisplayName, validation.Length(0, 100)),
		validation.Field(&r.Avatar, validation.Length(0, 500)),
		validation.Field(&r.Country, validation.Length(0, 100)),
		validation.Field(&r.Bio, validation.Length(0, 5000)),
	)
}
