package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TheCampingLog/image-server/internal/images/config"
	"github.com/TheCampingLog/image-server/internal/images/domain"
	"github.com/TheCampingLog/image-server/internal/images/port"
	"github.com/TheCampingLog/image-server/internal/images/service/mocks"
	"github.com/TheCampingLog/image-server/pkg/clock"
	"go.uber.org/mock/gomock"
)

func newMockedService(t *testing.T, store port.FileStore) *ImageServiceImpl {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.App.PublicDir = "/srv/public"
	registry, err := NewCategoryRegistry(cfg.App.Categories)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	svc, err := NewImageService(cfg, registry, store, clock.NewFixedClock(1700000000000))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc
}

func TestImageService_RejectionsNeverTouchFilesystem(t *testing.T) {
	tests := []struct {
		name    string
		run     func(svc *ImageServiceImpl) error
		wantErr error
	}{
		{
			name: "StoreNotAllowed",
			run: func(svc *ImageServiceImpl) error {
				_, err := svc.Store(context.Background(), domain.NewCategory("secret", ""), pngUpload("a.png", []byte("x")))
				return err
			},
			wantErr: domain.ErrCategoryNotAllowed,
		},
		{
			name: "DescribeNotAllowed",
			run: func(svc *ImageServiceImpl) error {
				_, err := svc.Describe(context.Background(), domain.NewCategory("secret", ""), "a.png")
				return err
			},
			wantErr: domain.ErrCategoryNotAllowed,
		},
		{
			name: "StoreBatchNotAllowed",
			run: func(svc *ImageServiceImpl) error {
				_, err := svc.StoreBatch(context.Background(), domain.NewCategory("secret", ""), []domain.Upload{pngUpload("a.png", []byte("x"))})
				return err
			},
			wantErr: domain.ErrCategoryNotAllowed,
		},
		{
			name: "StoreUnsupportedType",
			run: func(svc *ImageServiceImpl) error {
				u := pngUpload("a.gif", []byte("x"))
				u.ContentType = "image/gif"
				_, err := svc.Store(context.Background(), domain.NewCategory("review", ""), u)
				return err
			},
			wantErr: domain.ErrUnsupportedMediaType,
		},
		{
			name: "StoreInvalidSub",
			run: func(svc *ImageServiceImpl) error {
				_, err := svc.Store(context.Background(), domain.NewCategory("review", ".."), pngUpload("a.png", []byte("x")))
				return err
			},
			wantErr: domain.ErrInvalidSubCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// No expectations: any FileStore call fails the test.
			store := mocks.NewMockFileStore(ctrl)
			svc := newMockedService(t, store)

			if err := tt.run(svc); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestImageService_StoreErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		writeErr    error
		wantErr     error
		errContains string
	}{
		{name: "Conflict", writeErr: port.ErrFileExists, wantErr: domain.ErrStoreConflict},
		{name: "LimitExceeded", writeErr: port.ErrLimitExceeded, wantErr: domain.ErrPayloadTooLarge},
		{name: "DiskFull", writeErr: errors.New("no space left on device"), errContains: "no space left on device"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := mocks.NewMockFileStore(ctrl)
			store.EXPECT().EnsureDir(gomock.Any(), filepath.Join("/srv/public", "images", "review")).Return(nil)
			store.EXPECT().
				WriteExclusive(gomock.Any(), filepath.Join("/srv/public", "images", "review", "1700000000000_a.png"), gomock.Any(), DefaultMaxFileSize).
				Return(int64(0), tt.writeErr)

			svc := newMockedService(t, store)
			_, err := svc.Store(context.Background(), domain.NewCategory("review", ""), pngUpload("a.png", []byte("x")))
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error message %v does not contain %v", err, tt.errContains)
			}
		})
	}
}

func TestImageService_DescribeUsesStatOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mod := time.Unix(1700000000, 0)
	store := mocks.NewMockFileStore(ctrl)
	store.EXPECT().
		Stat(gomock.Any(), filepath.Join("/srv/public", "images", "member", "profile", "1_a.JPG")).
		Return(port.FileInfo{Size: 321, ModifiedAt: mod, Regular: true}, nil)

	svc := newMockedService(t, store)
	d, err := svc.Describe(context.Background(), domain.NewCategory("member", "profile"), "1_a.JPG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Size != 321 || d.Extension != ".jpg" || d.Category != "member/profile" || d.URL != "/images/member/profile/1_a.JPG" {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
	if d.ModifiedAt == nil || !d.ModifiedAt.Equal(mod) {
		t.Fatalf("unexpected modified_at: %v", d.ModifiedAt)
	}
}

func TestImageService_DescribeStatFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockFileStore(ctrl)
	store.EXPECT().Stat(gomock.Any(), gomock.Any()).Return(port.FileInfo{}, errors.New("permission denied"))

	svc := newMockedService(t, store)
	_, err := svc.Describe(context.Background(), domain.NewCategory("board", ""), "a.png")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
