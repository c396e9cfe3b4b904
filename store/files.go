// Package store wraps the database behind typed lookups so the rest of the
// app never builds ad-hoc where clauses
package store

import (
	"context"
	"errors"
	"fmt"

	"bitwise74/storage-api/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FileKey identifies one logical file. The triple is unique per the
// user_file_path index, re-uploads hit the same row.
type FileKey struct {
	UserID  string
	Name    string
	PathDir string
}

type FileStore struct {
	db *gorm.DB
}

func NewFileStore(db *gorm.DB) *FileStore {
	return &FileStore{db: db}
}

// FindByKey returns the record matching key, or nil if there is none
func (s *FileStore) FindByKey(ctx context.Context, key FileKey) (*model.File, error) {
	var file model.File

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND path_dir = ?", key.UserID, key.Name, key.PathDir).
		First(&file).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to lookup file by key, %w", err)
	}

	return &file, nil
}

// FindByID returns the record with the given id owned by userID, or nil.
// Scoping by owner means a foreign id behaves exactly like an unknown one.
func (s *FileStore) FindByID(ctx context.Context, userID, id string) (*model.File, error) {
	var file model.File

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&file).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to lookup file by id, %w", err)
	}

	return &file, nil
}

func (s *FileStore) Create(ctx context.Context, file *model.File) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}

	if err := s.db.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("failed to create file record, %w", err)
	}

	return nil
}

// UpdateSize sets the record's size and bumps updated_at, then reloads the
// row so the caller sees the stored timestamps
func (s *FileStore) UpdateSize(ctx context.Context, file *model.File, size int64) error {
	err := s.db.WithContext(ctx).
		Model(file).
		Update("size", size).
		Error
	if err != nil {
		return fmt.Errorf("failed to update file size, %w", err)
	}

	if err := s.db.WithContext(ctx).First(file, "id = ?", file.ID).Error; err != nil {
		return fmt.Errorf("failed to reload file record, %w", err)
	}

	return nil
}

func (s *FileStore) ListByOwner(ctx context.Context, userID string, limit, offset int) ([]model.File, error) {
	var files []model.File

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&files).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list files, %w", err)
	}

	return files, nil
}
