package catalog

import "errors"

var (
	ErrInvalidCatalog     = errors.New("catalog.invalid")
	ErrDuplicateComponent = errors.New("catalog.duplicate_component")
	ErrUnknownComponent   = errors.New("catalog.unknown_component")
)
