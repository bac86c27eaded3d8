package port

import (
	"context"

	"github.com/TheCampingLog/image-server/internal/images/domain"
)

// ImageService defines the business logic for image storage.
type ImageService interface {
	// Store validates one upload and writes it under the category directory.
	Store(ctx context.Context, category domain.Category, upload domain.Upload) (*domain.Descriptor, error)

	// StoreBatch stores several uploads into one category. Either all are stored or none are kept.
	StoreBatch(ctx context.Context, category domain.Category, uploads []domain.Upload) ([]domain.Descriptor, error)

	// Describe returns metadata for a previously stored file without reading its content.
	Describe(ctx context.Context, category domain.Category, fileName string) (*domain.Descriptor, error)

	// Categories lists the whitelisted categories.
	Categories() []domain.Category
}
