package service

import (
	"context"

	"userauth/internal/domain"
	"userauth/internal/dto"
)

type IdentityService interface {
	Get(ctx context.Context, id domain.UserID) (*dto.UserResponse, error)
	Update(ctx context.Context, id domain.UserID, r dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, id domain.UserID) (*dto.DeleteResponse, error)
}
