package store

import (
	"context"
	"time"

	"userauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

func (u *UserStore) Create(ctx context.Context, usr *domain.User) error {
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	now := time.Now().UTC()
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = now
	}
	usr.UpdatedAt = now
	return duplicate(u.db.WithContext(ctx).Create(usr).Error)
}

// Save writes every column of an existing user. CreatedAt and ID never change.
func (u *UserStore) Save(ctx context.Context, usr *domain.User) error {
	usr.UpdatedAt = time.Now().UTC()
	return duplicate(u.db.WithContext(ctx).
		Model(&domain.User{ID: usr.ID}).
		Select("email", "username", "full_name", "otp", "is_disabled", "updated_at").
		Updates(usr).Error)
}

func (u *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Conflict returns the first unique identity column already held by a user
// other than self, or "" when the values are free.
func (u *UserStore) Conflict(ctx context.Context, self uuid.UUID, email, username, fullName string) (string, error) {
	checks := []struct {
		field, column, value string
	}{
		{"email", "email", email},
		{"username", "username", username},
		{"full_name", "full_name", fullName},
	}
	for _, c := range checks {
		var n int64
		err := u.db.WithContext(ctx).Model(&domain.User{}).
			Where(c.column+" = ? AND id <> ?", c.value, self).
			Count(&n).Error
		if err != nil {
			return "", err
		}
		if n > 0 {
			return c.field, nil
		}
	}
	return "", nil
}
