package impl

import (
	"context"
	"errors"
	"time"

	"userauth/internal/domain"
	"userauth/internal/dto"
	"userauth/internal/events"
	"userauth/internal/jwtsigner"
	"userauth/internal/netutil"
	"userauth/internal/observability/metrics"
	"userauth/internal/observability/middleware"
	"userauth/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenConfig struct {
	AccessTTL  time.Duration // 15m
	RefreshTTL time.Duration // 50 days
}

const (
	claimUsername = "username"
	claimEmail    = "email"
	claimFullName = "full_name"
	claimSession  = "sid"
)

type TokenServiceImpl struct {
	cfg    TokenConfig
	store  dataStore
	signer *jwtsigner.Signer

	Events events.Publisher
}

func NewTokenServiceImpl(cfg TokenConfig, st *store.Store, signer *jwtsigner.Signer) *TokenServiceImpl {
	return &TokenServiceImpl{cfg: cfg, store: NewGormStore(st), signer: signer, Events: events.Nop}
}

// Issue creates a Session row and returns an access+refresh pair whose
// refresh jti is the session's RefreshID.
func (t *TokenServiceImpl) Issue(ctx context.Context, user *domain.User, ip, ua string) (_ *dto.TokenResponse, err error) {
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("issue", metrics.Result(err)).Inc()
	}()
	now := t.signer.Now()

	sess := &domain.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		RefreshID: uuid.New(),
		ExpiresAt: now.Add(t.cfg.RefreshTTL),
		CreatedAt: now,
		IP:        normalizeIP(ip),
		UserAgent: netutil.TruncateUserAgent(ua),
	}
	if err := t.store.Sessions().Create(ctx, sess); err != nil {
		return nil, err
	}

	out, err := t.signPair(user, sess)
	if err != nil {
		return nil, err
	}
	middleware.Logger(ctx).Info("issued tokens", "session_id", sess.ID, "user_id", user.ID)
	return out, nil
}

// Refresh rotates the session behind refreshToken. The presented token is
// blacklisted, so it can be used exactly once.
func (t *TokenServiceImpl) Refresh(ctx context.Context, refreshToken string, ip, ua string) (_ *dto.TokenResponse, err error) {
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("refresh", metrics.Result(err)).Inc()
	}()

	claims, err := t.parse(refreshToken, jwtsigner.TypeRefresh)
	if err != nil {
		return nil, err
	}
	oldJTI, err := jwtsigner.JTI(claims)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	oldExp := expiry(claims)

	listed, err := t.store.Blacklist().Contains(ctx, oldJTI)
	if err != nil {
		return nil, err
	}
	if listed {
		middleware.Logger(ctx).Warn("blacklisted refresh token presented", "jti", oldJTI)
		return nil, domain.ErrTokenBlacklisted
	}

	now := t.signer.Now()
	var (
		sess *domain.Session
		user *domain.User
	)
	err = t.store.WithTx(ctx, func(tx storeTx) error {
		var err error
		sess, err = tx.Sessions().GetByRefreshID(ctx, oldJTI)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return domain.ErrInvalidToken
			}
			return err
		}
		if sess.RevokedAt != nil || now.After(sess.ExpiresAt) {
			return domain.ErrInvalidToken
		}

		newRID := uuid.New()
		newExp := now.Add(t.cfg.RefreshTTL)
		ip, ua := normalizeIP(ip), netutil.TruncateUserAgent(ua)
		if err := tx.Sessions().Rotate(ctx, sess.ID, oldJTI, newRID, newExp, ip, ua); err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return domain.ErrTokenBlacklisted
			}
			return err
		}
		sess.RefreshID, sess.ExpiresAt, sess.IP, sess.UserAgent = newRID, newExp, ip, ua

		if err := tx.Blacklist().Add(ctx, oldJTI, sess.UserID, oldExp); err != nil {
			return err
		}

		// reload so the new pair carries the identity as it is now
		user, err = tx.Users().GetByID(ctx, sess.UserID)
		if err != nil {
			return domain.ErrInvalidToken
		}
		if user.IsDisabled {
			return domain.ErrUserDisabled
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out, err := t.signPair(user, sess)
	if err != nil {
		return nil, err
	}
	middleware.Logger(ctx).Info("refreshed tokens", "session_id", sess.ID, "user_id", user.ID)
	return out, nil
}

// Blacklist revokes a refresh token and the session it belongs to.
func (t *TokenServiceImpl) Blacklist(ctx context.Context, refreshToken string) error {
	claims, err := t.parse(refreshToken, jwtsigner.TypeRefresh)
	if err != nil {
		return err
	}
	jti, err := jwtsigner.JTI(claims)
	if err != nil {
		return domain.ErrInvalidToken
	}
	userID, err := uuid.Parse(subject(claims))
	if err != nil {
		return domain.ErrInvalidToken
	}

	var sess *domain.Session
	err = t.store.WithTx(ctx, func(tx storeTx) error {
		// tokens of a deleted identity are invalid; its sessions went with it
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return domain.ErrInvalidToken
			}
			return err
		}
		if err := tx.Blacklist().Add(ctx, jti, userID, expiry(claims)); err != nil {
			return err
		}
		found, err := tx.Sessions().GetByRefreshID(ctx, jti)
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		sess = found
		return tx.Sessions().Revoke(ctx, sess.ID, t.signer.Now())
	})
	if err != nil {
		return err
	}
	middleware.Logger(ctx).Info("refresh token blacklisted", "jti", jti, "user_id", userID)
	if sess != nil {
		t.Events.Publish(ctx, events.SessionRevoked{
			SessionID: sess.ID.String(),
			UserID:    userID.String(),
			Reason:    "logout",
			At:        t.signer.Now(),
		})
	}
	return nil
}

func (t *TokenServiceImpl) RevokeSession(ctx context.Context, sessionID domain.SessionID) error {
	return t.store.Sessions().Revoke(ctx, sessionID, t.signer.Now())
}

// VerifyAccess validates an access token and returns its identity claims.
func (t *TokenServiceImpl) VerifyAccess(_ context.Context, req dto.VerifyRequest) (dto.VerifyResponse, error) {
	claims, err := t.parse(req.Token, jwtsigner.TypeAccess)
	if err != nil {
		return dto.VerifyResponse{}, err
	}
	str := func(k string) string {
		v, _ := claims[k].(string)
		return v
	}
	return dto.VerifyResponse{
		Valid:     true,
		Subject:   subject(claims),
		Username:  str(claimUsername),
		Email:     str(claimEmail),
		FullName:  str(claimFullName),
		SessionID: str(claimSession),
		TokenID:   str("jti"),
		ExpiresAt: expiry(claims),
	}, nil
}

// ====== Helpers ======

func (t *TokenServiceImpl) signPair(user *domain.User, sess *domain.Session) (*dto.TokenResponse, error) {
	claims := map[string]any{
		claimUsername: user.Username,
		claimEmail:    user.Email,
		claimFullName: user.FullName,
		claimSession:  sess.ID.String(),
	}
	access, err := t.signer.Sign(user.ID.String(), jwtsigner.TypeAccess, uuid.Nil, t.cfg.AccessTTL, claims)
	if err != nil {
		return nil, err
	}
	refresh, err := t.signer.Sign(user.ID.String(), jwtsigner.TypeRefresh, sess.RefreshID, t.cfg.RefreshTTL, claims)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		ExpiresIn:    int64(t.cfg.AccessTTL.Seconds()),
	}, nil
}

func (t *TokenServiceImpl) parse(token, wantType string) (jwt.MapClaims, error) {
	claims, err := t.signer.Parse(token, wantType)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwtsigner.ErrExpired):
		return nil, domain.ErrTokenExpired
	default:
		return nil, domain.ErrInvalidToken
	}
}

func subject(claims jwt.MapClaims) string {
	sub, _ := claims.GetSubject()
	return sub
}

func expiry(claims jwt.MapClaims) time.Time {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.UTC()
}

// normalizeIP drops anything that is not an address; the column holds at most
// an IPv6 literal.
func normalizeIP(ip string) string {
	if normalized, ok := netutil.NormalizeIP(ip); ok {
		return normalized
	}
	return ""
}
