package store

import (
	"context"

	"userauth/internal/domain"

	"github.com/google/uuid"
)

// DeleteUserData removes the user's record and everything it owns, returning
// per-table counts captured before deletion. Dependants are deleted explicitly
// so the result does not hinge on the database enforcing ON DELETE CASCADE.
func (s *Store) DeleteUserData(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	deleted := map[string]int64{}

	err := s.WithTx(ctx, func(tx *Store) error {
		db := tx.DB.WithContext(ctx)

		var users int64
		if err := db.Model(&domain.User{}).Where("id = ?", userID).Count(&users).Error; err != nil {
			return err
		}
		if users == 0 {
			return ErrRecordNotFound
		}
		deleted["users"] = users

		dependants := []struct {
			label string
			model any
		}{
			{"blacklistedTokens", &domain.BlacklistedToken{}},
			{"sessions", &domain.Session{}},
			{"passwordCredentials", &domain.PasswordCredential{}},
			{"profiles", &domain.Profile{}},
		}
		for _, d := range dependants {
			res := db.Where("user_id = ?", userID).Delete(d.model)
			if res.Error != nil {
				return res.Error
			}
			deleted[d.label] = res.RowsAffected
		}

		return db.Where("id = ?", userID).Delete(&domain.User{}).Error
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

