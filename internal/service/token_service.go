package service

import (
	"context"

	"userauth/internal/domain"
	"userauth/internal/dto"
)

type TokenService interface {
	Issue(ctx context.Context, user *domain.User, ip, ua string) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string, ip, ua string) (*dto.TokenResponse, error)
	Blacklist(ctx context.Context, refreshToken string) error
	RevokeSession(ctx context.Context, sessionID domain.SessionID) error
	VerifyAccess(ctx context.Context, req dto.VerifyRequest) (dto.VerifyResponse, error)
}
