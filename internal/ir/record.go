package ir

import (
	"strconv"
	"strings"
)

// Record is one remote command as extracted from a source file.
type Record struct {
	// Name is the human label ("Power", "Vol_up").
	Name string

	// Protocol is the protocol name as reported by the source. It is
	// normalised during lookup.
	Protocol string

	// Fields maps field names to their raw text. Keys are matched
	// case-insensitively.
	Fields map[string]string

	// Timings holds raw mark/space durations in microseconds, for records
	// that have no parsed form.
	Timings []int

	// Order is the byte order of space-separated byte fields.
	Order ByteOrder
}

// Field name aliases, first match wins.
var (
	addressKeys   = []string{"address", "device"}
	subdeviceKeys = []string{"subdevice", "extended"}
	commandKeys   = []string{"command", "functioncode", "function_code"}
	dataKeys      = []string{"data"}
	repeatKeys    = []string{"repeat", "repeats"}
	bitsKeys      = []string{"bits", "nbits"}
)

// Get returns the text of the first field named by keys, matched
// case-insensitively, or "" when none is set.
func (r Record) Get(keys ...string) string {
	for _, k := range keys {
		if v, ok := r.Fields[k]; ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	for _, k := range keys {
		for fk, v := range r.Fields {
			if strings.EqualFold(fk, k) && strings.TrimSpace(v) != "" {
				return v
			}
		}
	}
	return ""
}

// Fields is the normalised field set of a Record.
type Fields struct {
	Address   Field
	Subdevice Field
	Command   Field
	Data      Field

	// Repeat is the explicit repeat count; valid only when HasRepeat.
	Repeat    int
	HasRepeat bool

	// Bits is the raw bit-count field text, used to complete a bare "SIRC".
	Bits string
}

// HasData reports whether a literal frame value is present.
func (f Fields) HasData() bool { return f.Data.Present }

// HasAddressCommand reports whether the builder inputs are present. The
// command is required; a missing address reads as zero, matching remote
// dumps that omit a zero device.
func (f Fields) HasAddressCommand() bool { return f.Command.Present }

// NormalizeRecord parses every recognised field of r.
func NormalizeRecord(r Record) (Fields, error) {
	var (
		out Fields
		err error
	)

	if out.Address, err = ParseField("address", r.Get(addressKeys...), r.Order); err != nil {
		return Fields{}, err
	}
	if out.Subdevice, err = ParseField("subdevice", r.Get(subdeviceKeys...), r.Order); err != nil {
		return Fields{}, err
	}
	if out.Command, err = ParseField("command", r.Get(commandKeys...), r.Order); err != nil {
		return Fields{}, err
	}
	if out.Data, err = parseData(r.Get(dataKeys...), r.Order); err != nil {
		return Fields{}, err
	}

	if text := strings.TrimSpace(r.Get(repeatKeys...)); text != "" {
		n, perr := strconv.Atoi(text)
		if perr != nil || n < 0 {
			return Fields{}, &FieldParseError{Field: "repeat", Text: text, Err: perr}
		}
		out.Repeat, out.HasRepeat = n, true
	}

	out.Bits = strings.TrimSpace(r.Get(bitsKeys...))
	return out, nil
}

// parseData normalises a data literal like any other field. A Flipper raw
// "data:" timing list is not a literal and reads as absent; the raw path
// decodes it from Record.Timings.
func parseData(text string, order ByteOrder) (Field, error) {
	s := strings.TrimSpace(text)
	if s == "" || isTimingList(s) {
		return Field{}, nil
	}
	return ParseField("data", s, order)
}

// isTimingList reports whether s is a list of decimal durations rather
// than a byte sequence: two or more integers, at least one wider than a
// byte's two digits.
func isTimingList(s string) bool {
	parts := strings.Fields(s)
	if len(parts) < 2 {
		return false
	}
	wide := false
	for _, p := range parts {
		n := strings.TrimPrefix(p, "-")
		if _, err := strconv.ParseUint(n, 10, 64); err != nil {
			return false
		}
		if len(n) > 2 {
			wide = true
		}
	}
	return wide
}
