package impl

import (
	"context"
	"errors"
	"sync"
	"time"

	"userauth/internal/domain"
	"userauth/internal/store"

	"github.com/google/uuid"
)

var errNotSupported = errors.New("not supported by memory store")

// memoryStore covers users, profiles and credentials. Sessions and the
// blacklist are exercised against sqlite instead.
type memoryStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*domain.User
	profiles    map[uuid.UUID]*domain.Profile // by user id
	credentials map[uuid.UUID]*domain.PasswordCredential

	failProfileCreate error
}

type storeSnapshot struct {
	users       map[uuid.UUID]*domain.User
	profiles    map[uuid.UUID]*domain.Profile
	credentials map[uuid.UUID]*domain.PasswordCredential
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:       make(map[uuid.UUID]*domain.User),
		profiles:    make(map[uuid.UUID]*domain.Profile),
		credentials: make(map[uuid.UUID]*domain.PasswordCredential),
	}
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(&memoryTx{store: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

func (m *memoryStore) DeleteUserData(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	return nil, errNotSupported
}

func (m *memoryStore) Users() userStore             { return &memoryUserStore{store: m} }
func (m *memoryStore) Profiles() profileStore       { return &memoryProfileStore{store: m} }
func (m *memoryStore) Credentials() credentialStore { return &memoryCredentialStore{store: m} }
func (m *memoryStore) Sessions() sessionStore       { return nil }
func (m *memoryStore) Blacklist() blacklistStore    { return nil }

func (m *memoryStore) snapshot() storeSnapshot {
	users := make(map[uuid.UUID]*domain.User, len(m.users))
	for id, user := range m.users {
		copy := *user
		users[id] = &copy
	}
	profiles := make(map[uuid.UUID]*domain.Profile, len(m.profiles))
	for id, prof := range m.profiles {
		copy := *prof
		profiles[id] = &copy
	}
	creds := make(map[uuid.UUID]*domain.PasswordCredential, len(m.credentials))
	for id, cred := range m.credentials {
		copy := *cred
		creds[id] = &copy
	}
	return storeSnapshot{users: users, profiles: profiles, credentials: creds}
}

func (m *memoryStore) restore(s storeSnapshot) {
	m.users = s.users
	m.profiles = s.profiles
	m.credentials = s.credentials
}

func (m *memoryStore) counts() (users, profiles, credentials int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), len(m.profiles), len(m.credentials)
}

func (m *memoryStore) userByEmail(email string) (*domain.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, true
		}
	}
	return nil, false
}

func (m *memoryStore) credentialByUserID(userID uuid.UUID) (*domain.PasswordCredential, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cred, ok := m.credentials[userID]
	if !ok {
		return nil, false
	}
	copy := *cred
	return &copy, true
}

type memoryTx struct {
	store *memoryStore
}

func (m *memoryTx) Users() userStore             { return &memoryUserStore{store: m.store} }
func (m *memoryTx) Profiles() profileStore       { return &memoryProfileStore{store: m.store} }
func (m *memoryTx) Credentials() credentialStore { return &memoryCredentialStore{store: m.store} }
func (m *memoryTx) Sessions() sessionStore       { return nil }
func (m *memoryTx) Blacklist() blacklistStore    { return nil }

type memoryUserStore struct {
	store *memoryStore
}

func (u *memoryUserStore) Create(ctx context.Context, usr *domain.User) error {
	if field, _ := u.Conflict(ctx, usr.ID, usr.Email, usr.Username, usr.FullName); field != "" {
		return &domain.DuplicateIdentityError{Field: field}
	}
	now := time.Now().UTC()
	usr.CreatedAt, usr.UpdatedAt = now, now
	copy := *usr
	u.store.users[usr.ID] = &copy
	return nil
}

func (u *memoryUserStore) Save(ctx context.Context, usr *domain.User) error {
	if _, ok := u.store.users[usr.ID]; !ok {
		return store.ErrRecordNotFound
	}
	usr.UpdatedAt = time.Now().UTC()
	copy := *usr
	u.store.users[usr.ID] = &copy
	return nil
}

func (u *memoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	usr, ok := u.store.users[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copy := *usr
	return &copy, nil
}

func (u *memoryUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, usr := range u.store.users {
		if usr.Email == email {
			copy := *usr
			return &copy, nil
		}
	}
	return nil, store.ErrRecordNotFound
}

func (u *memoryUserStore) Conflict(ctx context.Context, self uuid.UUID, email, username, fullName string) (string, error) {
	for id, usr := range u.store.users {
		if id == self {
			continue
		}
		switch {
		case usr.Email == email:
			return "email", nil
		case usr.Username == username:
			return "username", nil
		case usr.FullName == fullName:
			return "full_name", nil
		}
	}
	return "", nil
}

type memoryProfileStore struct {
	store *memoryStore
}

func (p *memoryProfileStore) Create(ctx context.Context, prof *domain.Profile) error {
	if p.store.failProfileCreate != nil {
		return p.store.failProfileCreate
	}
	if _, ok := p.store.profiles[prof.UserID]; ok {
		return errors.New("profile already exists")
	}
	copy := *prof
	copy.User = nil
	p.store.profiles[prof.UserID] = &copy
	return nil
}

func (p *memoryProfileStore) Save(ctx context.Context, prof *domain.Profile) error {
	copy := *prof
	copy.User = nil
	p.store.profiles[prof.UserID] = &copy
	return nil
}

func (p *memoryProfileStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	prof, ok := p.store.profiles[userID]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copy := *prof
	return &copy, nil
}

func (p *memoryProfileStore) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	if _, ok := p.store.profiles[userID]; !ok {
		return 0, nil
	}
	delete(p.store.profiles, userID)
	return 1, nil
}

type memoryCredentialStore struct {
	store *memoryStore
}

func (c *memoryCredentialStore) UpsertPassword(ctx context.Context, cred *domain.PasswordCredential) error {
	copy := *cred
	c.store.credentials[cred.UserID] = &copy
	return nil
}

func (c *memoryCredentialStore) GetPasswordByUserID(ctx context.Context, userID uuid.UUID) (*domain.PasswordCredential, error) {
	cred, ok := c.store.credentials[userID]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copy := *cred
	return &copy, nil
}
