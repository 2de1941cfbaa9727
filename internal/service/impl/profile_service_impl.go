package impl

import (
	"context"
	"strings"
	"time"

	"userauth/internal/domain"
	"userauth/internal/dto"
	"userauth/internal/events"
	"userauth/internal/observability/middleware"
	"userauth/internal/store"
)

type ProfileServiceImpl struct {
	Store  dataStore
	Sync   *ProfileSync
	Events events.Publisher
}

func NewProfileServiceImpl(st *store.Store, sync *ProfileSync, pub events.Publisher) *ProfileServiceImpl {
	if pub == nil {
		pub = events.Nop
	}
	return &ProfileServiceImpl{Store: NewGormStore(st), Sync: sync, Events: pub}
}

func (p *ProfileServiceImpl) Get(ctx context.Context, userID domain.UserID) (*dto.ProfileResponse, error) {
	prof, err := p.Store.Profiles().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := dto.NewProfileResponse(prof)
	return &out, nil
}

// Update edits the owner-controlled fields. A blank display name falls back
// to the owner's full name, as on every identity save.
func (p *ProfileServiceImpl) Update(ctx context.Context, userID domain.UserID, r dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	if err := dto.Check(r); err != nil {
		return nil, err
	}

	var prof *domain.Profile
	err := p.Store.WithTx(ctx, func(tx storeTx) error {
		owner, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		prof, err = tx.Profiles().GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if r.DisplayName != nil {
			prof.DisplayName = strings.TrimSpace(*r.DisplayName)
		}
		if r.Avatar != nil {
			prof.Avatar = strings.TrimSpace(*r.Avatar)
		}
		if r.Country != nil {
			prof.Country = emptyToNil(*r.Country)
		}
		if r.Bio != nil {
			prof.Bio = emptyToNil(*r.Bio)
		}
		p.Sync.DeriveProfile(prof, owner)
		return tx.Profiles().Save(ctx, prof)
	})
	if err != nil {
		return nil, err
	}

	p.Events.Publish(ctx, events.ProfileSynced{
		ProfileID:   prof.ID.String(),
		UserID:      prof.UserID.String(),
		DisplayName: prof.DisplayName,
		At:          time.Now().UTC(),
	})
	out := dto.NewProfileResponse(prof)
	return &out, nil
}

// Delete removes only the profile; the identity survives and gets a fresh
// profile on its next save.
func (p *ProfileServiceImpl) Delete(ctx context.Context, userID domain.UserID) error {
	n, err := p.Store.Profiles().DeleteByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrRecordNotFound
	}
	middleware.Logger(ctx).Info("profile deleted", "user_id", userID)
	return nil
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
