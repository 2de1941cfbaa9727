package service

import (
	"context"

	"userauth/internal/dto"
)

type AuthService interface {
	Register(ctx context.Context, r dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, r dto.LoginRequest, ip, ua string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}
