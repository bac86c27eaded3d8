package service

import (
	"context"
	"fmt"

	"github.com/TheCampingLog/image-server/internal/images/config"
	"github.com/TheCampingLog/image-server/internal/images/domain"
	"github.com/TheCampingLog/image-server/internal/images/port"
	"github.com/TheCampingLog/image-server/pkg/clock"
)

// ImageServiceImpl is the facade that wires use-case services for image operations.
type ImageServiceImpl struct {
	cfg       *config.Config
	registry  *CategoryRegistry
	store     port.FileStore
	resolver  *PathResolver
	validator *IngestValidator
	namer     *NameGenerator

	storeUseCase    *storeService
	describeUseCase *describeService
	batchUseCase    *batchService
}

// Ensure ImageServiceImpl implements port.ImageService.
var _ port.ImageService = (*ImageServiceImpl)(nil)

// NewImageService builds the image service facade and all use-case services.
func NewImageService(cfg *config.Config, registry *CategoryRegistry, store port.FileStore, clk clock.Clock) (*ImageServiceImpl, error) {
	resolver, err := NewPathResolver(cfg.App.ImagesDir(), registry, store)
	if err != nil {
		return nil, fmt.Errorf("failed to init path resolver: %w", err)
	}

	svc := &ImageServiceImpl{
		cfg:       cfg,
		registry:  registry,
		store:     store,
		resolver:  resolver,
		validator: NewIngestValidator(cfg.App.MaxFileSize),
		namer:     NewNameGenerator(clk),
	}

	svc.storeUseCase = newStoreService(svc)
	svc.describeUseCase = newDescribeService(svc)
	svc.batchUseCase = newBatchService(svc, svc.storeUseCase)

	return svc, nil
}

// Store delegates single uploads to the store use-case service.
func (s *ImageServiceImpl) Store(ctx context.Context, category domain.Category, upload domain.Upload) (*domain.Descriptor, error) {
	return s.storeUseCase.store(ctx, category, upload)
}

// StoreBatch delegates multi-file uploads to the batch use-case service.
func (s *ImageServiceImpl) StoreBatch(ctx context.Context, category domain.Category, uploads []domain.Upload) ([]domain.Descriptor, error) {
	return s.batchUseCase.storeBatch(ctx, category, uploads)
}

// Describe delegates metadata lookups to the describe use-case service.
func (s *ImageServiceImpl) Describe(ctx context.Context, category domain.Category, fileName string) (*domain.Descriptor, error) {
	return s.describeUseCase.describe(ctx, category, fileName)
}

// Categories returns the whitelisted categories.
func (s *ImageServiceImpl) Categories() []domain.Category {
	return s.registry.Categories()
}

// Provision creates every whitelisted category directory. Called once at startup.
func (s *ImageServiceImpl) Provision(ctx context.Context) error {
	return s.resolver.Provision(ctx)
}

// ImagesRoot returns the absolute directory stored files live under.
func (s *ImageServiceImpl) ImagesRoot() string {
	return s.resolver.Root()
}

// batchWorkers returns parallel write count with safe default.
func (s *ImageServiceImpl) batchWorkers() int {
	if s.cfg.App.BatchWorkers > 0 {
		return s.cfg.App.BatchWorkers
	}
	return 4
}

// maxBatchFiles returns the per-request file cap with safe default.
func (s *ImageServiceImpl) maxBatchFiles() int {
	if s.cfg.App.MaxBatchFiles > 0 {
		return s.cfg.App.MaxBatchFiles
	}
	return 10
}
