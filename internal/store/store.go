package store

import (
	"context"
	"errors"
	"fmt"

	"userauth/internal/domain"

	"gorm.io/gorm"
)

var ErrRecordNotFound = domain.ErrNotFound

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{DB: tx})
	})
}

// Migrate creates or updates every table the service owns. Order matters:
// users first so the foreign keys resolve.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).AutoMigrate(
		&domain.User{},
		&domain.Profile{},
		&domain.PasswordCredential{},
		&domain.Session{},
		&domain.BlacklistedToken{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}
