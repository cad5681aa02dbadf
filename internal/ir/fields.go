package ir

import (
	"strconv"
	"strings"
)

// ByteOrder selects how a space-separated byte sequence is assembled into
// an integer.
type ByteOrder uint8

const (
	// MSBFirst treats the first byte as the most significant ("01 00" = 0x0100).
	MSBFirst ByteOrder = iota

	// LSBFirst treats the first byte as the least significant ("01 00" = 0x0001).
	// Flipper IRDB dumps are written this way.
	LSBFirst
)

// maxFieldBytes bounds a byte sequence to what fits in a uint64.
const maxFieldBytes = 8

// Field is a normalised numeric field.
type Field struct {
	// Value is the field as one unsigned integer.
	Value uint64

	// Bytes holds the individual byte values, in source order, when the
	// text was a byte sequence. Nil for hex or decimal literals.
	Bytes []byte

	// Present is false when the field was absent or empty.
	Present bool
}

// ParseField normalises the textual field value text.
//
// Rules, in order of input shape:
//   - internal whitespace: space-separated hexadecimal bytes ("01 00 00 00")
//   - "0x" or "0X" prefix: hexadecimal
//   - anything else: decimal
//   - empty: zero, Present=false
//
// Parameters:
//   - name: Field name, reported in errors
//   - text: Raw text from the source
//   - order: Byte significance for byte sequences
//
// Returns:
//   - Field: The normalised value
//   - error: *FieldParseError (ErrFieldParse) on malformed digits
func ParseField(name, text string, order ByteOrder) (Field, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Field{}, nil
	}

	if parts := strings.Fields(s); len(parts) > 1 {
		return parseByteSequence(name, text, parts, order)
	}

	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return Field{}, &FieldParseError{Field: name, Text: text, Err: err}
		}
		return Field{Value: v, Present: true}, nil
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Field{}, &FieldParseError{Field: name, Text: text, Err: err}
	}
	return Field{Value: v, Present: true}, nil
}

func parseByteSequence(name, text string, parts []string, order ByteOrder) (Field, error) {
	if len(parts) > maxFieldBytes {
		return Field{}, &FieldParseError{Field: name, Text: text, Err: strconv.ErrRange}
	}

	f := Field{Bytes: make([]byte, len(parts)), Present: true}
	for i, p := range parts {
		p = strings.TrimPrefix(strings.TrimPrefix(p, "0x"), "0X")
		if len(p) == 0 || len(p) > 2 {
			return Field{}, &FieldParseError{Field: name, Text: text, Err: strconv.ErrSyntax}
		}
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return Field{}, &FieldParseError{Field: name, Text: text, Err: err}
		}
		f.Bytes[i] = byte(b)
	}

	for i := range f.Bytes {
		var b byte
		if order == LSBFirst {
			b = f.Bytes[len(f.Bytes)-1-i]
		} else {
			b = f.Bytes[i]
		}
		f.Value = f.Value<<8 | uint64(b)
	}
	return f, nil
}

// ByteAt returns the i-th byte of the field in wire position.
//
// For byte sequences this is the i-th byte as written in the source. For
// integer literals the value is split little-endian, so ByteAt(0) is the
// low byte. Positions past the end read as zero.
func (f Field) ByteAt(i int) byte {
	if f.Bytes != nil {
		if i < len(f.Bytes) {
			return f.Bytes[i]
		}
		return 0
	}
	if i >= maxFieldBytes {
		return 0
	}
	return byte(f.Value >> (8 * uint(i)))
}

// Octet returns byte i of Value by significance, 0 being the least
// significant. Unlike ByteAt it does not depend on how the text was
// written, so "12 34", "0x1234" and "4660" agree under MSBFirst.
func (f Field) Octet(i int) byte {
	if i < 0 || i >= maxFieldBytes {
		return 0
	}
	return byte(f.Value >> (8 * uint(i)))
}

// fitsBytes reports whether no byte at or beyond position n is set.
func (f Field) fitsBytes(n int) bool {
	for i := n; i < maxFieldBytes; i++ {
		if f.ByteAt(i) != 0 {
			return false
		}
	}
	return true
}

// fitsOctets reports whether Value fits in its n least significant bytes.
func (f Field) fitsOctets(n int) bool {
	return f.Value <= Mask(8*uint(n))
}

// fitsCommandByte reports whether the field holds a single command byte,
// optionally with its one's-complement as the next significant byte.
func (f Field) fitsCommandByte() bool {
	if !f.fitsOctets(2) {
		return false
	}
	hi := f.Octet(1)
	return hi == 0 || hi == ^f.Octet(0)
}
