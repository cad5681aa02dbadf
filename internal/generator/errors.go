package generator

import (
	"errors"
	"fmt"
)

// ErrNoCommands is returned when no record of a batch could be encoded.
var ErrNoCommands = errors.New("generator: no commands encoded")

// RecordError ties an encode failure to its position in the batch.
type RecordError struct {
	Index int
	Name  string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d (%q): %v", e.Index, e.Name, e.Err)
}

// Unwrap returns the encode error.
func (e *RecordError) Unwrap() error { return e.Err }
