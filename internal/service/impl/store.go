package impl

import (
	"context"
	"time"

	"userauth/internal/domain"
	"userauth/internal/store"

	"github.com/google/uuid"
)

// The services talk to storage through these narrow interfaces so tests can
// substitute an in-memory store for gorm.

type dataStore interface {
	storeTx
	WithTx(ctx context.Context, fn func(tx storeTx) error) error
	DeleteUserData(ctx context.Context, userID uuid.UUID) (map[string]int64, error)
}

type storeTx interface {
	Users() userStore
	Profiles() profileStore
	Credentials() credentialStore
	Sessions() sessionStore
	Blacklist() blacklistStore
}

type userStore interface {
	Create(ctx context.Context, usr *domain.User) error
	Save(ctx context.Context, usr *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Conflict(ctx context.Context, self uuid.UUID, email, username, fullName string) (string, error)
}

type profileStore interface {
	Create(ctx context.Context, prof *domain.Profile) error
	Save(ctx context.Context, prof *domain.Profile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}

type credentialStore interface {
	UpsertPassword(ctx context.Context, c *domain.PasswordCredential) error
	GetPasswordByUserID(ctx context.Context, userID uuid.UUID) (*domain.PasswordCredential, error)
}

type sessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByRefreshID(ctx context.Context, rid uuid.UUID) (*domain.Session, error)
	Rotate(ctx context.Context, id, oldRID, newRID uuid.UUID, expiresAt time.Time, ip, ua string) error
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
}

type blacklistStore interface {
	Add(ctx context.Context, jti uuid.UUID, userID uuid.UUID, expiresAt time.Time) error
	Contains(ctx context.Context, jti uuid.UUID) (bool, error)
}

// NewGormStore adapts the gorm-backed store to the interfaces above.
func NewGormStore(st *store.Store) dataStore {
	return gormStoreAdapter{gormTxAdapter{tx: st}}
}

type gormStoreAdapter struct {
	gormTxAdapter
}

func (g gormStoreAdapter) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	if g.tx == nil {
		return ErrNilStore
	}
	return g.tx.WithTx(ctx, func(tx *store.Store) error {
		return fn(gormTxAdapter{tx: tx})
	})
}

func (g gormStoreAdapter) DeleteUserData(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	return g.tx.DeleteUserData(ctx, userID)
}

type gormTxAdapter struct {
	tx *store.Store
}

func (g gormTxAdapter) Users() userStore { return g.tx.Users() }

func (g gormTxAdapter) Profiles() profileStore { return g.tx.Profiles() }

func (g gormTxAdapter) Credentials() credentialStore { return g.tx.Credentials() }

func (g gormTxAdapter) Sessions() sessionStore { return g.tx.Sessions() }

func (g gormTxAdapter) Blacklist() blacklistStore { return g.tx.Blacklist() }
