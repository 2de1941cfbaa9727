package service

import (
	"context"

	"userauth/internal/domain"
	"userauth/internal/dto"
)

type ProfileService interface {
	Get(ctx context.Context, userID domain.UserID) (*dto.ProfileResponse, error)
	Update(ctx context.Context, userID domain.UserID, r dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	Delete(ctx context.Context, userID domain.UserID) error
}
