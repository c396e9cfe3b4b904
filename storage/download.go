package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"bitwise74/storage-api/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNoSelector    = errors.New("no filename or file_id provided")
	ErrInvalidFileID = errors.New("invalid file_id")
	ErrFileNotFound  = errors.New("file not found")
)

type Strategy int

const (
	// Buffered loads the whole body before sending, fine for small assets
	Buffered Strategy = iota
	// Streamed emits fixed-size chunks so large transfers never
	// materialize fully in memory
	Streamed
)

// Delivery describes how a resolved file should be sent to the client
type Delivery struct {
	Strategy  Strategy
	Path      string
	Filename  string
	Size      int64
	ChunkSize int
}

// Dispatcher resolves download requests to a delivery strategy. The
// strategy threshold and chunk size come from config.
type Dispatcher struct {
	Files         FileFinder
	Paths         *Resolver
	LargeFileSize int64
	ChunkSize     int
}

// FileFinder is the slice of the metadata store the dispatcher needs
type FileFinder interface {
	FindByID(ctx context.Context, userID, id string) (*model.File, error)
}

func NewDispatcher(files FileFinder, paths *Resolver, largeFileSize int64, chunkSize int) *Dispatcher {
	return &Dispatcher{
		Files:         files,
		Paths:         paths,
		LargeFileSize: largeFileSize,
		ChunkSize:     chunkSize,
	}
}

// Download resolves the requested file either by (filename, dir) or by
// fileID and picks a delivery strategy by on-disk size. The record's size
// column is deliberately ignored here, disk is ground truth.
func (d *Dispatcher) Download(ctx context.Context, owner *model.User, filename, dir, fileID string) (*Delivery, error) {
	if filename == "" && fileID == "" {
		return nil, ErrNoSelector
	}

	if fileID != "" {
		if _, err := uuid.Parse(fileID); err != nil {
			return nil, ErrInvalidFileID
		}

		file, err := d.Files.FindByID(ctx, owner.ID, fileID)
		if err != nil {
			return nil, err
		}

		if file == nil {
			return nil, ErrInvalidFileID
		}

		filename = file.Name
		dir = file.PathDir
	}

	path, err := d.Paths.Resolve(owner.Username, filename, dir)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}

		return nil, fmt.Errorf("failed to stat %s, %w", path, err)
	}

	delivery := &Delivery{
		Path:      path,
		Filename:  filename,
		Size:      stat.Size(),
		ChunkSize: d.ChunkSize,
	}

	if stat.Size() < d.LargeFileSize {
		delivery.Strategy = Buffered
		zap.L().Info("Buffered delivery",
			zap.String("name", filename),
			zap.Int64("size", stat.Size()))
	} else {
		delivery.Strategy = Streamed
		zap.L().Info("Streamed delivery",
			zap.String("name", filename),
			zap.Int64("size", stat.Size()))
	}

	return delivery, nil
}

// ReadAll loads the whole body, used by the buffered strategy
func (d *Delivery) ReadAll() ([]byte, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s, %w", d.Path, err)
	}

	return data, nil
}

// Stream copies the file to w in ChunkSize pieces. A fresh reader is
// opened per call and released on every exit path, including a client
// that goes away mid-transfer.
func (d *Delivery) Stream(w io.Writer) error {
	f, err := os.Open(d.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s, %w", d.Path, err)
	}
	defer f.Close()

	buf := make([]byte, d.ChunkSize)

	for {
		n, err := f.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return fmt.Errorf("failed to write chunk, %w", werr)
			}
		}

		if err == io.EOF {
			return nil
		}

		if err != nil {
			return fmt.Errorf("failed to read chunk, %w", err)
		}
	}
}
