package i18n

import "errors"

var (
	ErrFailedToParseJSON = errors.New("failed to parse JSON catalog")
	ErrFailedToParseYAML = errors.New("failed to parse YAML catalog")
	ErrUnsupportedFormat = errors.New("unsupported catalog format")
	ErrFailedToReadFile  = errors.New("failed to read catalog file")
	ErrInvalidCatalog    = errors.New("invalid catalog")
)
