package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/TheCampingLog/image-server/internal/images/domain"
	"github.com/TheCampingLog/image-server/pkg/resilience"
	"github.com/anthanhphan/gosdk/logger"
)

// batchService stores several uploads into one category, all or nothing.
type batchService struct {
	core  *ImageServiceImpl
	files *storeService
}

// newBatchService creates the batch upload use-case service.
func newBatchService(core *ImageServiceImpl, files *storeService) *batchService {
	return &batchService{core: core, files: files}
}

// storeBatch validates every upload first, then writes them in parallel.
// If any write fails the files already written are removed.
func (s *batchService) storeBatch(ctx context.Context, category domain.Category, uploads []domain.Upload) ([]domain.Descriptor, error) {
	if err := s.checkAll(uploads); err != nil {
		return nil, err
	}

	dir, err := s.core.resolver.Resolve(ctx, category)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.Descriptor, len(uploads))
	if err := s.writeAll(ctx, dir, uploads, results); err != nil {
		logger.Errorw("Batch upload failed", "category", category.String(), "files", len(uploads), "error", err.Error())
		s.rollback(dir, results)
		return nil, err
	}

	out := make([]domain.Descriptor, 0, len(results))
	for _, d := range results {
		out = append(out, *d)
	}
	logger.Infow("Batch upload completed", "category", category.String(), "files", len(out))
	return out, nil
}

// checkAll rejects the whole batch before anything touches the filesystem.
func (s *batchService) checkAll(uploads []domain.Upload) error {
	if len(uploads) == 0 {
		return domain.ErrNoFiles
	}
	if limit := s.core.maxBatchFiles(); len(uploads) > limit {
		return fmt.Errorf("%w: %d files, at most %d per request", domain.ErrTooManyFiles, len(uploads), limit)
	}

	seen := make(map[string]struct{}, len(uploads))
	for _, u := range uploads {
		if err := s.files.check(u); err != nil {
			return err
		}
		// Same-name files in one batch would share a millisecond and collide.
		if _, dup := seen[u.OriginalName]; dup {
			return fmt.Errorf("%w: %q appears more than once", domain.ErrInvalidFileName, u.OriginalName)
		}
		seen[u.OriginalName] = struct{}{}
	}
	return nil
}

// writeAll fans the writes out over a worker pool and cancels the rest on the first failure.
func (s *batchService) writeAll(ctx context.Context, dir Dir, uploads []domain.Upload, results []*domain.Descriptor) error {
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var batchErr error
	var errOnce sync.Once
	reportErr := func(err error) {
		errOnce.Do(func() {
			batchErr = err
			cancelWorkers()
		})
	}

	pool := resilience.NewWorkerPool(s.core.batchWorkers(), len(uploads))
	for i, upload := range uploads {
		err := pool.Submit(workerCtx, func() error {
			d, err := s.files.write(workerCtx, dir, upload)
			if err != nil {
				reportErr(err)
				return err
			}
			results[i] = d
			return nil
		})
		if err != nil {
			reportErr(err)
			break
		}
	}

	poolErr := pool.Wait()
	if batchErr != nil {
		return batchErr
	}
	return poolErr
}

// rollback best-effort removes files written before the batch failed.
func (s *batchService) rollback(dir Dir, results []*domain.Descriptor) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, d := range results {
		if d == nil {
			continue
		}
		if err := s.core.store.Remove(ctx, dir.Join(d.FileName)); err != nil {
			logger.Warnw("Batch rollback delete failed", "category", d.Category, "file_name", d.FileName, "error", err.Error())
		}
	}
}
