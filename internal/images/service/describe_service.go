package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/TheCampingLog/image-server/internal/images/domain"
	"github.com/TheCampingLog/image-server/internal/images/port"
)

// describeService answers metadata lookups from file stats only.
type describeService struct {
	core *ImageServiceImpl
}

// newDescribeService creates the describe use-case service.
func newDescribeService(core *ImageServiceImpl) *describeService {
	return &describeService{core: core}
}

// describe validates the category without creating it and stats the file.
func (s *describeService) describe(ctx context.Context, category domain.Category, fileName string) (*domain.Descriptor, error) {
	dir, err := s.core.resolver.Locate(category)
	if err != nil {
		return nil, err
	}

	// A name that is not a plain path element can never be a stored file.
	if !validSegment(fileName) {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrNotFound, category, fileName)
	}

	info, err := s.core.store.Stat(ctx, dir.Join(fileName))
	if err != nil {
		if errors.Is(err, port.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", domain.ErrNotFound, category, fileName)
		}
		return nil, fmt.Errorf("failed to describe %s/%s: %w", category, fileName, err)
	}
	if !info.Regular {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrNotFound, category, fileName)
	}

	modified := info.ModifiedAt
	return &domain.Descriptor{
		FileName:   fileName,
		Size:       info.Size,
		Extension:  strings.ToLower(filepath.Ext(fileName)),
		Category:   category.String(),
		URL:        category.URL(fileName),
		ModifiedAt: &modified,
	}, nil
}
