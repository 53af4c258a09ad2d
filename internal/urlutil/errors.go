package urlutil

import "errors"

var (
	// ErrMalformedURL is returned when the input cannot be normalized into a URL
	ErrMalformedURL = errors.New("malformed url")
)
