package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TheCampingLog/image-server/internal/images/domain"
)

var ErrInvalidRegistry = errors.New("invalid category registry")

// DefaultCategories is the whitelist the service ships with.
var DefaultCategories = []string{"member/profile", "review", "board"}

// CategoryRegistry is the immutable whitelist of categories. Only top-level
// segments are checked on requests; sub-categories are free-form.
type CategoryRegistry struct {
	entries    []string
	categories []domain.Category
	tops       []string
	topSet     map[string]struct{}
}

// NewCategoryRegistry parses entries of the form "top" or "top/child".
func NewCategoryRegistry(entries []string) (*CategoryRegistry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no categories", ErrInvalidRegistry)
	}

	r := &CategoryRegistry{
		entries:    make([]string, 0, len(entries)),
		categories: make([]domain.Category, 0, len(entries)),
		topSet:     make(map[string]struct{}, len(entries)),
	}

	for _, entry := range entries {
		segments := strings.Split(entry, "/")
		if len(segments) > 2 {
			return nil, fmt.Errorf("%w: %q has more than two segments", ErrInvalidRegistry, entry)
		}
		for _, seg := range segments {
			if seg == "" || seg == "." || seg == ".." || strings.Contains(seg, `\`) {
				return nil, fmt.Errorf("%w: %q has an invalid segment", ErrInvalidRegistry, entry)
			}
		}

		c := domain.Category{Top: segments[0]}
		if len(segments) == 2 {
			c.Sub = segments[1]
		}

		r.entries = append(r.entries, entry)
		r.categories = append(r.categories, c)
		if _, seen := r.topSet[c.Top]; !seen {
			r.topSet[c.Top] = struct{}{}
			r.tops = append(r.tops, c.Top)
		}
	}

	return r, nil
}

// AllowedTop reports whether segment is the top part of a registered category.
func (r *CategoryRegistry) AllowedTop(segment string) bool {
	_, ok := r.topSet[segment]
	return ok
}

// Categories returns the registered categories in declaration order.
func (r *CategoryRegistry) Categories() []domain.Category {
	out := make([]domain.Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// Tops returns the distinct top segments in first-seen order.
func (r *CategoryRegistry) Tops() []string {
	out := make([]string, len(r.tops))
	copy(out, r.tops)
	return out
}

func (r *CategoryRegistry) String() string {
	return strings.Join(r.entries, ", ")
}
