package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/TheCampingLog/image-server/internal/images/port"
	"github.com/anthanhphan/gosdk/logger"
)

const (
	tempPrefix = ".upload-"
	dirPerm    = 0o755
	filePerm   = 0o644
)

// Adapter stores files on the local filesystem.
// Writes land in a temp file next to the target and are published with a hard link,
// which fails when the target name is taken.
type Adapter struct{}

// Ensure Adapter implements port.FileStore.
var _ port.FileStore = (*Adapter)(nil)

func NewAdapter() *Adapter {
	return &Adapter{}
}

func (a *Adapter) EnsureDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		// Another request may have won the race with something MkdirAll did not expect.
		if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
			return nil
		}
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

func (a *Adapter) WriteExclusive(ctx context.Context, path string, reader io.Reader, limit int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), tempPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			logger.Warnw("Temp file cleanup failed", "path", tmpName, "error", rmErr.Error())
		}
	}()

	written, copyErr := copyLimited(ctx, tmp, reader, limit)
	if copyErr == nil {
		copyErr = tmp.Sync()
	}
	closeErr := tmp.Close()

	switch {
	case errors.Is(copyErr, port.ErrLimitExceeded):
		return 0, copyErr
	case copyErr != nil:
		return 0, fmt.Errorf("failed to write %s: %w", path, copyErr)
	case closeErr != nil:
		return 0, fmt.Errorf("failed to close temp file for %s: %w", path, closeErr)
	}

	if err := os.Chmod(tmpName, filePerm); err != nil {
		return 0, fmt.Errorf("failed to chmod temp file for %s: %w", path, err)
	}

	if err := os.Link(tmpName, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, port.ErrFileExists
		}
		return 0, fmt.Errorf("failed to publish %s: %w", path, err)
	}

	return written, nil
}

func (a *Adapter) Stat(ctx context.Context, path string) (port.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return port.FileInfo{}, err
	}
	if strings.HasPrefix(filepath.Base(path), tempPrefix) {
		return port.FileInfo{}, port.ErrFileNotFound
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return port.FileInfo{}, port.ErrFileNotFound
		}
		return port.FileInfo{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return port.FileInfo{
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
		Regular:    info.Mode().IsRegular(),
	}, nil
}

func (a *Adapter) Remove(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// copyLimited copies at most limit bytes and reports ErrLimitExceeded when the source has more.
func copyLimited(ctx context.Context, dst io.Writer, src io.Reader, limit int64) (int64, error) {
	r := io.Reader(&contextReader{ctx: ctx, r: src})
	if limit >= 0 {
		r = io.LimitReader(r, limit+1)
	}

	n, err := io.Copy(dst, r)
	if err != nil {
		return n, err
	}
	if limit >= 0 && n > limit {
		return n, port.ErrLimitExceeded
	}
	return n, nil
}

// contextReader stops reading once ctx is done, so aborted uploads never get published.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
