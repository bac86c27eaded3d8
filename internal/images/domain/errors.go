package domain

import "errors"

var (
	ErrCategoryNotAllowed   = errors.New("category not allowed")
	ErrInvalidSubCategory   = errors.New("invalid sub-category")
	ErrPathEscape           = errors.New("path escapes images root")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrInvalidFileName      = errors.New("invalid file name")
	ErrStoreConflict        = errors.New("stored file already exists")
	ErrNotFound             = errors.New("file not found")

	// Batch uploads.
	ErrNoFiles      = errors.New("no files uploaded")
	ErrTooManyFiles = errors.New("too many files")
)
