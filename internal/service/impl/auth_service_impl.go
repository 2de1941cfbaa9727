package impl

import (
	"context"
	"time"

	"userauth/internal/domain"
	"userauth/internal/dto"
	"userauth/internal/events"
	"userauth/internal/identity"
	"userauth/internal/observability/metrics"
	"userauth/internal/observability/middleware"
	"userauth/internal/service"

	"github.com/google/uuid"
)

type AuthServiceImpl struct {
	Store           dataStore
	Identities      *IdentityServiceImpl
	PasswordService service.PasswordService
	Policy          *PasswordPolicy
	TService        service.TokenService
	Events          events.Publisher
}

func NewAuthServiceImpl(identities *IdentityServiceImpl, passwordService service.PasswordService, policy *PasswordPolicy, tokenService service.TokenService) *AuthServiceImpl {
	return &AuthServiceImpl{
		Store:           identities.Store,
		Identities:      identities,
		PasswordService: passwordService,
		Policy:          policy,
		TService:        tokenService,
		Events:          identities.Events,
	}
}

// Register creates the identity, its password credential and its profile in
// one transaction. The submitted username becomes the full name; the login
// username is always the email local part.
func (a *AuthServiceImpl) Register(ctx context.Context, r dto.RegisterRequest) (out *dto.RegisterResponse, err error) {
	defer func() {
		metrics.AuthRegistrationsTotal.WithLabelValues(metrics.Result(err)).Inc()
	}()

	// 1) validation, nothing is written until all of it passes
	if err := dto.Check(r); err != nil {
		return nil, err
	}
	email, err := identity.NormalizeEmail(r.Email)
	if err != nil {
		return nil, err
	}
	if r.Password != r.Password2 {
		return nil, domain.ErrPasswordMismatch
	}
	local := identity.LocalPart(email)
	fullName := r.Username
	if fullName == "" {
		fullName = local
	}
	if err := a.Policy.Check(r.Password, PasswordAttributes{Username: local, FullName: fullName, Email: email}); err != nil {
		return nil, err
	}
	hash, salt, paramsJSON, algo, ver, err := a.PasswordService.Hash(r.Password)
	if err != nil {
		return nil, err
	}

	// 2) identity + credential + profile
	u := &domain.User{ID: uuid.New(), Email: email, FullName: r.Username}
	var prof *domain.Profile
	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		var err error
		prof, err = a.Identities.Create(ctx, tx, u)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		return tx.Credentials().UpsertPassword(ctx, &domain.PasswordCredential{
			ID:          uuid.New(),
			UserID:      u.ID,
			Algo:        algo,
			Hash:        hash,
			Salt:        salt,
			ParamsJSON:  paramsJSON,
			PasswordVer: ver,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	})
	if err != nil {
		middleware.Logger(ctx).Warn("registration failed", "email", email, "err", err)
		return nil, err
	}

	now := time.Now().UTC()
	a.Events.Publish(ctx, events.UserRegistered{UserID: u.ID.String(), Email: u.Email, At: now})
	a.Identities.publishSynced(ctx, prof, true, now)
	middleware.Logger(ctx).Info("user registered", "user_id", u.ID, "username", u.Username)

	return &dto.RegisterResponse{
		User:    dto.NewUserResponse(u),
		Profile: dto.NewProfileResponse(prof),
	}, nil
}

func (a *AuthServiceImpl) Login(ctx context.Context, r dto.LoginRequest, ip, ua string) (tokens *dto.TokenResponse, err error) {
	defer func() {
		metrics.AuthLoginsTotal.WithLabelValues(metrics.Result(err)).Inc()
	}()
	if err := dto.Check(r); err != nil {
		return nil, err
	}
	email, err := identity.NormalizeEmail(r.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	// Verification (and a possible rehash) commits before the session is
	// written so the two never hold the database at the same time.
	var user *domain.User
	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		var err error
		user, err = tx.Users().GetByEmail(ctx, email)
		if err != nil {
			return domain.ErrInvalidCredentials // don't leak which field failed
		}
		if user.IsDisabled {
			return domain.ErrUserDisabled
		}
		cred, err := tx.Credentials().GetPasswordByUserID(ctx, user.ID)
		if err != nil {
			return domain.ErrInvalidCredentials
		}
		rehashNeeded, ok := a.PasswordService.Verify(r.Password, cred)
		if !ok {
			return domain.ErrInvalidCredentials
		}
		if rehashNeeded {
			newHash, newSalt, newParamsJSON, algo, ver, err := a.PasswordService.Hash(r.Password)
			if err != nil {
				return err
			}
			cred.Algo = algo
			cred.Hash = newHash
			cred.Salt = newSalt
			cred.ParamsJSON = newParamsJSON
			cred.PasswordVer = ver
			cred.UpdatedAt = time.Now().UTC()
			if err := tx.Credentials().UpsertPassword(ctx, cred); err != nil {
				return err
			}
			middleware.Logger(ctx).Info("password rehashed", "user_id", user.ID, "algo", algo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a.TService.Issue(ctx, user, ip, ua)
}

func (a *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	return a.TService.Blacklist(ctx, refreshToken)
}

// ImportLegacyUser creates an identity carrying an existing Django password
// hash. The hash is kept as-is and upgraded on the user's first login.
func (a *AuthServiceImpl) ImportLegacyUser(ctx context.Context, email, fullName, encodedHash string) (*domain.User, error) {
	u := &domain.User{ID: uuid.New(), Email: email, FullName: fullName}
	cred, err := ImportDjangoHash(u.ID, encodedHash, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	var prof *domain.Profile
	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		var err error
		prof, err = a.Identities.Create(ctx, tx, u)
		if err != nil {
			return err
		}
		return tx.Credentials().UpsertPassword(ctx, cred)
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a.Events.Publish(ctx, events.UserRegistered{UserID: u.ID.String(), Email: u.Email, At: now})
	a.Identities.publishSynced(ctx, prof, true, now)
	middleware.Logger(ctx).Info("legacy user imported", "user_id", u.ID, "username", u.Username)
	return u, nil
}
