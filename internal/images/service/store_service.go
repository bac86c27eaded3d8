package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/TheCampingLog/image-server/internal/images/domain"
	"github.com/TheCampingLog/image-server/internal/images/port"
	"github.com/anthanhphan/gosdk/logger"
)

// storeService validates one upload, resolves its directory and writes it exclusively.
type storeService struct {
	core *ImageServiceImpl
}

// newStoreService creates the store use-case service.
func newStoreService(core *ImageServiceImpl) *storeService {
	return &storeService{core: core}
}

// store runs the full single-file workflow. The file name is checked before the
// directory is resolved so rejected uploads never create directories.
func (s *storeService) store(ctx context.Context, category domain.Category, upload domain.Upload) (*domain.Descriptor, error) {
	if err := s.check(upload); err != nil {
		return nil, err
	}

	dir, err := s.core.resolver.Resolve(ctx, category)
	if err != nil {
		return nil, err
	}

	return s.write(ctx, dir, upload)
}

// check applies the declarative validation and the file name rule.
func (s *storeService) check(upload domain.Upload) error {
	if err := s.core.validator.Validate(upload.ContentType, upload.Size); err != nil {
		return err
	}
	if !validSegment(upload.OriginalName) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidFileName, upload.OriginalName)
	}
	if upload.Body == nil {
		return fmt.Errorf("%w: %q has no content", domain.ErrNoFiles, upload.OriginalName)
	}
	return nil
}

// write names the file and streams it into dir. Conflicts are reported, never retried.
func (s *storeService) write(ctx context.Context, dir Dir, upload domain.Upload) (*domain.Descriptor, error) {
	category := dir.Category()
	storedName := s.core.namer.Generate(upload.OriginalName)
	limit := s.core.validator.MaxSize()

	written, err := s.core.store.WriteExclusive(ctx, dir.Join(storedName), upload.Body, limit)
	if err != nil {
		switch {
		case errors.Is(err, port.ErrFileExists):
			logger.Warnw("Stored name collision", "category", category.String(), "file_name", storedName)
			return nil, fmt.Errorf("%w: %s/%s", domain.ErrStoreConflict, category, storedName)
		case errors.Is(err, port.ErrLimitExceeded):
			return nil, fmt.Errorf("%w: %q exceeds the %d byte limit", domain.ErrPayloadTooLarge, upload.OriginalName, limit)
		default:
			logger.Errorw("Image write failed", "category", category.String(), "file_name", storedName, "error", err.Error())
			return nil, fmt.Errorf("failed to store %s/%s: %w", category, storedName, err)
		}
	}

	logger.Infow("Image stored", "category", category.String(), "file_name", storedName, "size_bytes", written)
	return &domain.Descriptor{
		FileName:     storedName,
		OriginalName: upload.OriginalName,
		Size:         written,
		MimeType:     upload.ContentType,
		Category:     category.String(),
		URL:          category.URL(storedName),
	}, nil
}
