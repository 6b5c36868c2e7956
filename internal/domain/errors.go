package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrReadFailed      = errors.New("file could not be read")
	ErrDecodeFailed    = errors.New("bytes are not a valid image")
	ErrRenderFailed    = errors.New("could not render letterbox canvas")
	ErrMissingInput    = errors.New("both a model and a doll image are required")
	ErrNoImageReturned = errors.New("provider returned no image content")
	ErrRunInProgress   = errors.New("a generation run is already in progress")
	ErrProviderFailure = errors.New("provider failure")
)
