package store

import (
	"context"
	"time"

	"userauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BlacklistStore struct{ db *gorm.DB }

func (s *Store) Blacklist() *BlacklistStore { return &BlacklistStore{s.DB} }

// Add records jti as revoked. Adding the same jti twice is a no-op.
func (b *BlacklistStore) Add(ctx context.Context, jti uuid.UUID, userID uuid.UUID, expiresAt time.Time) error {
	row := &domain.BlacklistedToken{
		ID:        uuid.New(),
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return b.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(row).Error
}

func (b *BlacklistStore) Contains(ctx context.Context, jti uuid.UUID) (bool, error) {
	var n int64
	if err := b.db.WithContext(ctx).Model(&domain.BlacklistedToken{}).Where("jti = ?", jti).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// PurgeExpired drops entries whose token would be rejected by its exp claim
// anyway.
func (b *BlacklistStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tx := b.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&domain.BlacklistedToken{})
	return tx.RowsAffected, tx.Error
}
