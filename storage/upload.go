package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bitwise74/storage-api/model"
	"bitwise74/storage-api/store"

	"go.uber.org/zap"
)

// Engine reconciles physical content with its metadata record on every
// upload. Content is written first, metadata second: a crash in between
// leaves orphaned bytes on disk, never a record describing bytes that were
// never written. Orphans heal on the next upload to the same path.
type Engine struct {
	Files *store.FileStore
	Paths *Resolver
}

func NewEngine(files *store.FileStore, paths *Resolver) *Engine {
	return &Engine{Files: files, Paths: paths}
}

// Upload writes r to the owner's storage tree and creates or updates the
// matching metadata record. After a successful return the record's size
// equals the bytes on disk.
func (e *Engine) Upload(ctx context.Context, owner *model.User, name, dir string, r io.Reader) (*model.File, error) {
	path, err := e.Paths.Resolve(owner.Username, name, dir)
	if err != nil {
		return nil, err
	}

	// Checked before the write, this decides the reconcile branch below
	existed := true
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat %s, %w", path, err)
		}

		existed = false
	}

	if !existed {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directories for %s, %w", path, err)
		}
	}

	size, err := writeContent(path, r)
	if err != nil {
		return nil, err
	}

	if existed {
		file, err := e.Files.FindByKey(ctx, store.FileKey{
			UserID:  owner.ID,
			Name:    name,
			PathDir: dir,
		})
		if err != nil {
			return nil, err
		}

		if file != nil {
			if err := e.Files.UpdateSize(ctx, file, size); err != nil {
				return nil, err
			}

			zap.L().Info("File updated",
				zap.String("name", name),
				zap.Int64("size", size))
			return file, nil
		}

		// Content was on disk without a record, probably written
		// out-of-band. Adopt it under a fresh record.
		zap.L().Warn("File is in storage but has no database record",
			zap.String("path", path))
	}

	file := &model.File{
		UserID:  owner.ID,
		Name:    name,
		PathDir: dir,
		Size:    size,
	}

	if err := e.Files.Create(ctx, file); err != nil {
		return nil, err
	}

	zap.L().Info("File created",
		zap.String("name", name),
		zap.Int64("size", size))

	return file, nil
}

func writeContent(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s for writing, %w", path, err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("failed to write content to %s, %w", path, err)
	}

	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s, %w", path, err)
	}

	return size, nil
}
