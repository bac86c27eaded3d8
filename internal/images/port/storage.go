package port

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrFileExists    = errors.New("file already exists")
	ErrFileNotFound  = errors.New("file not found")
	ErrLimitExceeded = errors.New("write limit exceeded")
)

//go:generate mockgen -destination=../service/mocks/file_store_mock.go -package=mocks -source=storage.go

// FileInfo is the metadata FileStore reports for a stored file.
type FileInfo struct {
	Size       int64
	ModifiedAt time.Time
	Regular    bool
}

// FileStore is the filesystem boundary used by the image service.
type FileStore interface {
	// EnsureDir creates dir and missing ancestors. An existing directory is not an error.
	EnsureDir(ctx context.Context, dir string) error

	// WriteExclusive streams reader into path and fails with ErrFileExists instead of
	// overwriting. Partial output is never visible at path. A negative limit disables
	// the size ceiling; otherwise more than limit bytes fails with ErrLimitExceeded.
	WriteExclusive(ctx context.Context, path string, reader io.Reader, limit int64) (int64, error)

	// Stat reads file metadata without opening the content. Missing files yield ErrFileNotFound.
	Stat(ctx context.Context, path string) (FileInfo, error)

	// Remove deletes a stored file. Missing files are not an error.
	Remove(ctx context.Context, path string) error
}
