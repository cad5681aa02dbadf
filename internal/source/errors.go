package source

import "errors"

var (
	// ErrFetchFailed is returned when a source cannot be read or downloaded.
	ErrFetchFailed = errors.New("source: fetch failed")

	// ErrTooLarge is returned when a source exceeds MaxSourceSize.
	ErrTooLarge = errors.New("source: exceeds maximum size")

	// ErrUnknownFormat is returned when the format cannot be determined.
	ErrUnknownFormat = errors.New("source: unknown format")

	// ErrMalformed is returned when a structured source does not have one
	// of the accepted shapes.
	ErrMalformed = errors.New("source: malformed document")
)
