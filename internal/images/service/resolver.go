package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/TheCampingLog/image-server/internal/images/domain"
	"github.com/TheCampingLog/image-server/internal/images/port"
	"github.com/anthanhphan/gosdk/logger"
)

// Dir is a validated category directory. Only PathResolver creates one.
type Dir struct {
	path     string
	category domain.Category
}

// Path returns the absolute directory path.
func (d Dir) Path() string { return d.path }

// Category returns the category the directory belongs to.
func (d Dir) Category() domain.Category { return d.category }

// Join returns the path of a file inside the directory. name must be a plain file name.
func (d Dir) Join(name string) string {
	return filepath.Join(d.path, name)
}

// PathResolver maps untrusted category segments onto directories under the images root.
//
// The top segment must match the whitelist exactly. The sub segment is free-form
// and only shape-checked: it may not be blank, "." or "..", or contain a separator.
// Any registered top therefore accepts arbitrary sub-categories.
type PathResolver struct {
	root     string
	registry *CategoryRegistry
	store    port.FileStore
}

func NewPathResolver(root string, registry *CategoryRegistry, store port.FileStore) (*PathResolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve images root %q: %w", root, err)
	}
	return &PathResolver{
		root:     filepath.Clean(abs),
		registry: registry,
		store:    store,
	}, nil
}

// Root returns the absolute images root.
func (r *PathResolver) Root() string {
	return r.root
}

// Locate validates category and returns its directory without touching the filesystem.
func (r *PathResolver) Locate(category domain.Category) (Dir, error) {
	if category.Top == "" || !r.registry.AllowedTop(category.Top) {
		return Dir{}, fmt.Errorf("%w: %q, allowed categories: %s", domain.ErrCategoryNotAllowed, category.Top, r.registry)
	}

	if category.HasSub() && !validSegment(category.Sub) {
		logger.Warnw("Rejected sub-category, potential path traversal", "category", category.Top, "sub", category.Sub)
		return Dir{}, fmt.Errorf("%w: %q", domain.ErrInvalidSubCategory, category.Sub)
	}

	path, err := r.contain(filepath.Join(r.root, category.Top, category.Sub))
	if err != nil {
		logger.Warnw("Rejected category path outside images root", "category", category.String(), "error", err.Error())
		return Dir{}, err
	}

	return Dir{path: path, category: category}, nil
}

// Resolve validates category and makes sure its directory exists.
func (r *PathResolver) Resolve(ctx context.Context, category domain.Category) (Dir, error) {
	dir, err := r.Locate(category)
	if err != nil {
		return Dir{}, err
	}
	if err := r.store.EnsureDir(ctx, dir.path); err != nil {
		return Dir{}, err
	}
	return dir, nil
}

// Provision creates the root, every registered category and every top-level directory.
func (r *PathResolver) Provision(ctx context.Context) error {
	if err := r.store.EnsureDir(ctx, r.root); err != nil {
		return err
	}

	categories := r.registry.Categories()
	for _, top := range r.registry.Tops() {
		categories = append(categories, domain.Category{Top: top})
	}

	for _, c := range categories {
		if _, err := r.Resolve(ctx, c); err != nil {
			return fmt.Errorf("failed to provision category %s: %w", c, err)
		}
	}

	logger.Infow("Category directories provisioned", "root", r.root, "categories", r.registry.String())
	return nil
}

// contain cleans path and checks it is a strict descendant of the root.
func (r *PathResolver) contain(path string) (string, error) {
	cleaned := filepath.Clean(path)
	rel, err := filepath.Rel(r.root, cleaned)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", domain.ErrPathEscape, path)
	}
	return cleaned, nil
}

// validSegment reports whether s can be used as a single path element.
func validSegment(s string) bool {
	if strings.TrimSpace(s) == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\\x00")
}
