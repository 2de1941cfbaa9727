package impl

import (
	"context"
	"errors"
	"time"

	"userauth/internal/domain"
	"userauth/internal/dto"
	"userauth/internal/events"
	"userauth/internal/identity"
	"userauth/internal/observability/middleware"
	"userauth/internal/store"

	"github.com/google/uuid"
)

type IdentityServiceImpl struct {
	Store      dataStore
	Normalizer *identity.Normalizer
	Sync       *ProfileSync
	Events     events.Publisher
}

func NewIdentityServiceImpl(st *store.Store, n *identity.Normalizer, sync *ProfileSync, pub events.Publisher) *IdentityServiceImpl {
	if pub == nil {
		pub = events.Nop
	}
	return &IdentityServiceImpl{Store: NewGormStore(st), Normalizer: n, Sync: sync, Events: pub}
}

// Create normalizes and inserts user inside tx, then creates its profile.
// Username and FullName may be blank; they are derived from the email.
func (s *IdentityServiceImpl) Create(ctx context.Context, tx storeTx, user *domain.User) (*domain.Profile, error) {
	if err := s.normalize(user); err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := s.ensureUnique(ctx, tx, user); err != nil {
		return nil, err
	}
	if err := tx.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return s.Sync.IdentityCreated(ctx, tx, user)
}

// save is the update path: normalize, check, write, then mirror into the
// profile.
func (s *IdentityServiceImpl) save(ctx context.Context, tx storeTx, user *domain.User) (*domain.Profile, bool, error) {
	if err := s.normalize(user); err != nil {
		return nil, false, err
	}
	if err := s.ensureUnique(ctx, tx, user); err != nil {
		return nil, false, err
	}
	if err := tx.Users().Save(ctx, user); err != nil {
		return nil, false, err
	}
	return s.Sync.IdentityUpdated(ctx, tx, user)
}

func (s *IdentityServiceImpl) normalize(user *domain.User) error {
	f, err := s.Normalizer.Normalize(identity.Fields{
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	})
	if err != nil {
		return err
	}
	user.Email, user.Username, user.FullName = f.Email, f.Username, f.FullName
	return nil
}

func (s *IdentityServiceImpl) ensureUnique(ctx context.Context, tx storeTx, user *domain.User) error {
	field, err := tx.Users().Conflict(ctx, user.ID, user.Email, user.Username, user.FullName)
	if err != nil {
		return err
	}
	if field != "" {
		return &domain.DuplicateIdentityError{Field: field}
	}
	return nil
}

func (s *IdentityServiceImpl) Get(ctx context.Context, id domain.UserID) (*dto.UserResponse, error) {
	u, err := s.Store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := dto.NewUserResponse(u)
	return &out, nil
}

func (s *IdentityServiceImpl) Update(ctx context.Context, id domain.UserID, r dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := dto.Check(r); err != nil {
		return nil, err
	}

	var (
		user    *domain.User
		prof    *domain.Profile
		created bool
		revoked int64
	)
	err := s.Store.WithTx(ctx, func(tx storeTx) error {
		var err error
		user, err = tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		oldEmail := user.Email
		if r.Email != nil {
			user.Email = *r.Email
		}
		if r.Username != nil {
			user.Username = *r.Username
		}
		if r.FullName != nil {
			user.FullName = *r.FullName
		}
		prof, created, err = s.save(ctx, tx, user)
		if err != nil {
			return err
		}
		if user.Email != oldEmail {
			// the login credential changed; existing refresh tokens must not survive it
			n, err := tx.Sessions().RevokeAllForUser(ctx, user.ID, time.Now().UTC())
			if err != nil {
				return err
			}
			revoked = n
		}
		return nil
	})
	if err != nil {
		middleware.Logger(ctx).Warn("identity update failed", "user_id", id, "err", err)
		return nil, err
	}

	now := time.Now().UTC()
	s.Events.Publish(ctx, events.UserUpdated{
		UserID:   user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
		At:       now,
	})
	s.publishSynced(ctx, prof, created, now)
	if revoked > 0 {
		s.Events.Publish(ctx, events.SessionRevoked{UserID: user.ID.String(), Reason: "email_changed", At: now})
	}

	out := dto.NewUserResponse(user)
	return &out, nil
}

func (s *IdentityServiceImpl) Delete(ctx context.Context, id domain.UserID) (*dto.DeleteResponse, error) {
	deleted, err := s.Store.DeleteUserData(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			middleware.Logger(ctx).Error("identity delete failed", "user_id", id, "err", err)
		}
		return nil, err
	}
	s.Events.Publish(ctx, events.UserDeleted{UserID: id.String(), Deleted: deleted, At: time.Now().UTC()})
	middleware.Logger(ctx).Info("identity deleted", "user_id", id, "deleted", deleted)
	return &dto.DeleteResponse{Deleted: deleted}, nil
}

func (s *IdentityServiceImpl) publishSynced(ctx context.Context, prof *domain.Profile, created bool, at time.Time) {
	if prof == nil {
		return
	}
	s.Events.Publish(ctx, events.ProfileSynced{
		ProfileID:   prof.ID.String(),
		UserID:      prof.UserID.String(),
		DisplayName: prof.DisplayName,
		Created:     created,
		At:          at,
	})
}
