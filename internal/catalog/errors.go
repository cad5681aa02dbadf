package catalog

import "errors"

// ErrRunNotFound is returned when no run matches.
var ErrRunNotFound = errors.New("catalog: run not found")
