package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/TheCampingLog/image-server/internal/images/adapter/outbound/localfs"
	"github.com/TheCampingLog/image-server/internal/images/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *PathResolver {
	t.Helper()
	registry, err := NewCategoryRegistry(DefaultCategories)
	require.NoError(t, err)
	r, err := NewPathResolver(filepath.Join(t.TempDir(), "images"), registry, localfs.NewAdapter())
	require.NoError(t, err)
	return r
}

func TestPathResolver_Locate(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name     string
		category domain.Category
		wantPath string
		wantErr  error
	}{
		{name: "Top", category: domain.NewCategory("review", ""), wantPath: "review"},
		{name: "RegisteredSub", category: domain.NewCategory("member", "profile"), wantPath: filepath.Join("member", "profile")},
		{name: "UnregisteredSubAccepted", category: domain.NewCategory("board", "notice"), wantPath: filepath.Join("board", "notice")},
		{name: "NotAllowed", category: domain.NewCategory("secret", ""), wantErr: domain.ErrCategoryNotAllowed},
		{name: "EmptyTop", category: domain.NewCategory("", "profile"), wantErr: domain.ErrCategoryNotAllowed},
		{name: "TopIsCompound", category: domain.NewCategory("member/profile", ""), wantErr: domain.ErrCategoryNotAllowed},
		{name: "SubDotDot", category: domain.NewCategory("review", ".."), wantErr: domain.ErrInvalidSubCategory},
		{name: "SubDot", category: domain.NewCategory("review", "."), wantErr: domain.ErrInvalidSubCategory},
		{name: "SubBlank", category: domain.NewCategory("review", "   "), wantErr: domain.ErrInvalidSubCategory},
		{name: "SubSlash", category: domain.NewCategory("review", "a/b"), wantErr: domain.ErrInvalidSubCategory},
		{name: "SubTraversal", category: domain.NewCategory("review", "../../etc"), wantErr: domain.ErrInvalidSubCategory},
		{name: "SubBackslash", category: domain.NewCategory("review", `..\x`), wantErr: domain.ErrInvalidSubCategory},
		{name: "SubNUL", category: domain.NewCategory("review", "a\x00b"), wantErr: domain.ErrInvalidSubCategory},
		{name: "BadSubUnderBadTop", category: domain.NewCategory("secret", ".."), wantErr: domain.ErrCategoryNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, err := r.Locate(tt.category)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(r.Root(), tt.wantPath), dir.Path())
			assert.Equal(t, tt.category, dir.Category())

			_, statErr := os.Stat(dir.Path())
			assert.True(t, os.IsNotExist(statErr), "Locate must not create directories")
		})
	}
}

func TestPathResolver_NotAllowedListsWhitelist(t *testing.T) {
	r := newTestResolver(t)
	_, err := r.Locate(domain.NewCategory("secret", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "member/profile, review, board")
}

func TestPathResolver_Resolve(t *testing.T) {
	r := newTestResolver(t)

	dir, err := r.Resolve(context.Background(), domain.NewCategory("board", "notice"))
	require.NoError(t, err)

	info, err := os.Stat(dir.Path())
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = r.Resolve(context.Background(), domain.NewCategory("board", "notice"))
	assert.NoError(t, err, "resolve must be idempotent")

	_, err = r.Resolve(context.Background(), domain.NewCategory("secret", "x"))
	assert.ErrorIs(t, err, domain.ErrCategoryNotAllowed)
	_, statErr := os.Stat(filepath.Join(r.Root(), "secret"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPathResolver_Provision(t *testing.T) {
	r := newTestResolver(t)
	require.NoError(t, r.Provision(context.Background()))

	for _, rel := range []string{"", "member", filepath.Join("member", "profile"), "review", "board"} {
		info, err := os.Stat(filepath.Join(r.Root(), rel))
		require.NoError(t, err, rel)
		assert.True(t, info.IsDir(), rel)
	}
}

func TestPathResolver_Contain(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.contain(filepath.Join(r.Root(), "review", "..", "..", "etc"))
	assert.ErrorIs(t, err, domain.ErrPathEscape)

	_, err = r.contain(r.Root())
	assert.ErrorIs(t, err, domain.ErrPathEscape)

	_, err = r.contain(r.Root() + "-sibling")
	assert.ErrorIs(t, err, domain.ErrPathEscape)

	got, err := r.contain(filepath.Join(r.Root(), "review", "..dots"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.Root(), "review", "..dots"), got)
}
