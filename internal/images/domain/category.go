package domain

// Category is a whitelisted top-level grouping with an optional free-form sub-grouping.
type Category struct {
	Top string
	Sub string
}

// NewCategory builds a category from raw route segments. No validation happens here.
func NewCategory(top, sub string) Category {
	return Category{Top: top, Sub: sub}
}

// HasSub reports whether the category carries a sub-segment.
func (c Category) HasSub() bool {
	return c.Sub != ""
}

// String returns "top" or "top/sub".
func (c Category) String() string {
	if c.Sub == "" {
		return c.Top
	}
	return c.Top + "/" + c.Sub
}

// URL returns the public access path for a file stored under the category.
func (c Category) URL(fileName string) string {
	return "/images/" + c.String() + "/" + fileName
}
