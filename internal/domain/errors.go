package domain

import "errors"

var (
	ErrConfiguration       = errors.New("required configuration is missing")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrUpstream            = errors.New("generation provider request failed")
	ErrUnparsableStructure = errors.New("could not parse structured reply")
	ErrEmptyInput          = errors.New("empty reply text")
	ErrUnsupportedFormat   = errors.New("unsupported export format")
)
