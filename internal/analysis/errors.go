package analysis

import "errors"

var (
	// ErrInvalidURL is returned when the input cannot be normalized into an
	// analyzable URL
	ErrInvalidURL = errors.New("invalid url")

	// ErrEncodeResult is returned when the provider result bag cannot be
	// serialized
	ErrEncodeResult = errors.New("unable to encode analysis result")
)
