package impl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"userauth/internal/domain"
	"userauth/internal/observability/metrics"
	"userauth/internal/observability/middleware"
	"userauth/internal/store"

	"github.com/google/uuid"
)

type ProfileConfig struct {
	DefaultAvatar string
}

// ProfileSync keeps exactly one profile per identity. It runs inside the
// transaction of the identity write; an error rolls that write back.
type ProfileSync struct {
	cfg ProfileConfig
	now func() time.Time
}

func NewProfileSync(cfg ProfileConfig) *ProfileSync {
	if cfg.DefaultAvatar == "" {
		cfg.DefaultAvatar = domain.DefaultAvatar
	}
	return &ProfileSync{cfg: cfg, now: time.Now}
}

// DeriveProfile fills blank derived fields of prof from its owner.
func (s *ProfileSync) DeriveProfile(prof *domain.Profile, owner domain.Profileable) {
	prof.UserID = owner.GetID()
	if strings.TrimSpace(prof.DisplayName) == "" {
		prof.DisplayName = owner.GetFullName()
	}
	if prof.Avatar == "" {
		prof.Avatar = s.cfg.DefaultAvatar
	}
}

// IdentityCreated creates the profile of a freshly inserted identity.
func (s *ProfileSync) IdentityCreated(ctx context.Context, tx storeTx, user *domain.User) (prof *domain.Profile, err error) {
	defer func() {
		metrics.ProfileSyncsTotal.WithLabelValues("created", metrics.Result(err)).Inc()
	}()
	now := s.now().UTC()
	prof = &domain.Profile{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	s.DeriveProfile(prof, user)
	if err := tx.Profiles().Create(ctx, prof); err != nil {
		return nil, orphaned(err)
	}
	prof.User = user
	middleware.Logger(ctx).Debug("profile created", "user_id", user.ID, "profile", prof.Label())
	return prof, nil
}

// IdentityUpdated re-derives the owner's profile after an identity save. A
// profile deleted on its own is recreated.
func (s *ProfileSync) IdentityUpdated(ctx context.Context, tx storeTx, user *domain.User) (prof *domain.Profile, created bool, err error) {
	defer func() {
		metrics.ProfileSyncsTotal.WithLabelValues("updated", metrics.Result(err)).Inc()
	}()
	prof, err = tx.Profiles().GetByUserID(ctx, user.ID)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		prof, err = s.IdentityCreated(ctx, tx, user)
		return prof, err == nil, err
	case err != nil:
		return nil, false, orphaned(err)
	}
	s.DeriveProfile(prof, user)
	prof.UpdatedAt = s.now().UTC()
	if err := tx.Profiles().Save(ctx, prof); err != nil {
		return nil, false, orphaned(err)
	}
	prof.User = user
	middleware.Logger(ctx).Debug("profile synced", "user_id", user.ID, "profile", prof.Label())
	return prof, false, nil
}

func orphaned(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrOrphanedIdentity, err)
}
