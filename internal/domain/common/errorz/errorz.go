package errorz

import "errors"

var (
	ErrDesignNotFound      = errors.New("design not found")
	ErrMalformedLibrary    = errors.New("malformed library document")
	ErrInvalidConfig       = errors.New("invalid config")
	ErrInvalidName         = errors.New("invalid design name")
	ErrNoSource            = errors.New("no source image loaded")
	ErrUnsupportedFormat   = errors.New("unsupported export format")
	ErrUnsupportedMultiple = errors.New("unsupported export multiple")
)
