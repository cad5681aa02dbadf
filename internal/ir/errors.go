package ir

import (
	"errors"
	"fmt"
)

// Domain errors for IR encoding.
// Use errors.Is() to classify a failure; errors.As() recovers the details.
var (
	// ErrUnsupportedProtocol is returned when a protocol key is not in the
	// registry after normalisation.
	ErrUnsupportedProtocol = errors.New("ir: unsupported protocol")

	// ErrFieldParse is returned when a field's text is not a number.
	ErrFieldParse = errors.New("ir: field parse failed")

	// ErrFieldRange is returned in strict mode when a field does not fit
	// its protocol slot.
	ErrFieldRange = errors.New("ir: field out of range")

	// ErrMalformedRawSignal is returned when a raw timing list is too short
	// to hold a header mark and space.
	ErrMalformedRawSignal = errors.New("ir: malformed raw signal")

	// ErrInvalidRecord is returned when a record carries neither a data
	// value, an address/command pair nor raw timings.
	ErrInvalidRecord = errors.New("ir: invalid record")
)

// ProtocolError reports the key that failed registry lookup.
type ProtocolError struct {
	Key string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnsupportedProtocol, e.Key)
}

// Unwrap returns ErrUnsupportedProtocol.
func (e *ProtocolError) Unwrap() error { return ErrUnsupportedProtocol }

// FieldParseError reports a field whose text could not be parsed.
type FieldParseError struct {
	// Field is the record key (e.g. "address").
	Field string
	// Text is the raw text as it appeared in the source.
	Text string
	// Err is the underlying strconv error, if any.
	Err error
}

func (e *FieldParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s=%q: %v", ErrFieldParse, e.Field, e.Text, e.Err)
	}
	return fmt.Sprintf("%v: %s=%q", ErrFieldParse, e.Field, e.Text)
}

// Is reports whether target is ErrFieldParse.
func (e *FieldParseError) Is(target error) bool { return target == ErrFieldParse }

// Unwrap returns the underlying parse error.
func (e *FieldParseError) Unwrap() error { return e.Err }

// FieldRangeError reports a field wider than its protocol slot.
type FieldRangeError struct {
	Protocol string
	Field    string
	Value    uint64
	Bits     uint
}

func (e *FieldRangeError) Error() string {
	return fmt.Sprintf("%v: %s %s=0x%X exceeds %d bits", ErrFieldRange, e.Protocol, e.Field, e.Value, e.Bits)
}

// Unwrap returns ErrFieldRange.
func (e *FieldRangeError) Unwrap() error { return ErrFieldRange }

// Stable machine-readable error codes, as returned by ErrorCode.
const (
	CodeUnsupportedProtocol = "unsupported_protocol"
	CodeFieldParse          = "field_parse"
	CodeFieldRange          = "field_range"
	CodeMalformedRaw        = "malformed_raw"
	CodeInvalidRecord       = "invalid_record"
	CodeUnknown             = "error"
)

// ErrorCode classifies err by the sentinel it wraps. Errors from outside
// this package yield CodeUnknown.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedProtocol):
		return CodeUnsupportedProtocol
	case errors.Is(err, ErrFieldParse):
		return CodeFieldParse
	case errors.Is(err, ErrFieldRange):
		return CodeFieldRange
	case errors.Is(err, ErrMalformedRawSignal):
		return CodeMalformedRaw
	case errors.Is(err, ErrInvalidRecord):
		return CodeInvalidRecord
	}
	return CodeUnknown
}
