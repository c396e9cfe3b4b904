package store

import (
	"context"
	"errors"
	"fmt"

	"bitwise74/storage-api/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// FindByUsername returns the user with that username, or nil if unknown
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User

	err := s.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to lookup user, %w", err)
	}

	return &user, nil
}

// Exists reports whether a user with the given username or email is
// already registered
func (s *UserStore) Exists(ctx context.Context, username, email string) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).
		Model(model.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).
		Error
	if err != nil {
		return false, fmt.Errorf("failed to check if user is registered, %w", err)
	}

	return count > 0, nil
}

// SetActive flips the active flag. No request handler mutates it, this
// exists for operators and tests.
func (s *UserStore) SetActive(ctx context.Context, id string, active bool) error {
	err := s.db.WithContext(ctx).
		Model(model.User{}).
		Where("id = ?", id).
		Update("active", active).
		Error
	if err != nil {
		return fmt.Errorf("failed to update active flag, %w", err)
	}

	return nil
}

func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user, %w", err)
	}

	return nil
}
