package sqlstore

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/mamadbah2/recebimento/internal/domain/models"
)

// GetUser loads a user by login id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		if isRecordNotFound(err) {
			return models.User{}, notFound("user", id)
		}
		return models.User{}, storageError("get user", err)
	}
	return user, nil
}

// ListUsers returns every account ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, storageError("list users", err)
	}
	return users, nil
}

// SaveUser creates the user or replaces every field of an existing one.
func (s *Store) SaveUser(ctx context.Context, user models.User) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&user).Error
	if err != nil {
		return storageError("save user", err)
	}
	return nil
}

// DeleteUser removes an account.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return storageError("delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("user", id)
	}
	return nil
}

// CountUsers returns the number of accounts.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, storageError("count users", err)
	}
	return n, nil
}
