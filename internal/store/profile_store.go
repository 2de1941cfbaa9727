package store

import (
	"context"
	"time"

	"userauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileStore struct{ db *gorm.DB }

func (s *Store) Profiles() *ProfileStore { return &ProfileStore{db: s.DB} }

func (p *ProfileStore) Create(ctx context.Context, prof *domain.Profile) error {
	if prof.ID == uuid.Nil {
		prof.ID = uuid.New()
	}
	now := time.Now().UTC()
	if prof.CreatedAt.IsZero() {
		prof.CreatedAt = now
	}
	prof.UpdatedAt = now
	return p.db.WithContext(ctx).Omit(clause.Associations).Create(prof).Error
}

// Save writes the mutable profile columns. The owner and created_at are fixed.
func (p *ProfileStore) Save(ctx context.Context, prof *domain.Profile) error {
	prof.UpdatedAt = time.Now().UTC()
	return p.db.WithContext(ctx).
		Model(&domain.Profile{ID: prof.ID}).
		Omit(clause.Associations).
		Select("display_name", "avatar", "country", "bio", "updated_at").
		Updates(prof).Error
}

func (p *ProfileStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var prof domain.Profile
	if err := p.db.WithContext(ctx).First(&prof, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &prof, nil
}

func (p *ProfileStore) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).Model(&domain.Profile{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (p *ProfileStore) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	tx := p.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Profile{})
	return tx.RowsAffected, tx.Error
}
