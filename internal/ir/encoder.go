package ir

import (
	"fmt"
)

// Policy selects how fields wider than their protocol slot are handled.
type Policy uint8

const (
	// PolicyMask silently truncates out-of-range fields. This is the
	// default: a best-effort generator should not stop on a sloppy dump.
	PolicyMask Policy = iota

	// PolicyStrict rejects out-of-range fields with a FieldRangeError.
	PolicyStrict
)

// String returns "mask" or "strict".
func (p Policy) String() string {
	if p == PolicyStrict {
		return "strict"
	}
	return "mask"
}

// Source records which path produced a Code.
type Source uint8

const (
	// SourceBuilder means the word came from a protocol frame builder.
	SourceBuilder Source = iota
	// SourceData means a literal MSB-first data value was used as-is.
	SourceData
	// SourceRaw means the word was threshold-decoded from raw timings.
	SourceRaw
)

// String returns the lower-case source name.
func (s Source) String() string {
	switch s {
	case SourceData:
		return "data"
	case SourceRaw:
		return "raw"
	default:
		return "builder"
	}
}

// BitOrder selects which form of a Code is formatted.
type BitOrder uint8

const (
	// DisplayOrder is the MSB-first form downstream firmware expects.
	DisplayOrder BitOrder = iota
	// WireOrder is the LSB-first transmission word. NEC code tables are
	// conventionally written this way.
	WireOrder
)

// Code is an encoded IR command.
type Code struct {
	// Name is the record label.
	Name string

	// Descriptor is the resolved protocol.
	Descriptor Descriptor

	// Bits is the frame width. It equals Descriptor.WireBits except for
	// raw decodes, which report the number of bits actually decoded.
	Bits uint

	// Repeat is the repeat count.
	Repeat int

	// Word is the LSB-first wire word.
	Word uint64

	// Value is the MSB-first word, Reverse(Word, Bits).
	Value uint64

	// Hex is Value formatted for output, e.g. "0xC90".
	Hex string

	// Source is the path that produced the code.
	Source Source
}

// HexOrder formats the code in the requested bit order.
func (c Code) HexOrder(order BitOrder) string {
	if order == WireOrder {
		return FormatHex(c.Word, c.Bits)
	}
	return c.Hex
}

// Payload returns the OMOTE "0xHEX:bits:repeat" command payload.
func (c Code) Payload(order BitOrder) string {
	return fmt.Sprintf("%s:%d:%d", c.HexOrder(order), c.Bits, c.Repeat)
}

// FormatHex formats v as "0x" plus upper-case hex, zero-padded to the
// nibble width of bits.
func FormatHex(v uint64, bits uint) string {
	return fmt.Sprintf("0x%0*X", hexDigits(bits), v)
}

// Options configures an Encoder.
type Options struct {
	// Policy is the truncation policy. Zero value is PolicyMask.
	Policy Policy

	// RawProtocol is the protocol assumed for raw-timing records that do
	// not name one. Empty means KASEIKYO.
	RawProtocol string
}

// Encoder turns records into Codes. It is immutable and safe for
// concurrent use.
type Encoder struct {
	policy Policy
	raw    Descriptor
}

// NewEncoder creates an Encoder.
//
// Returns:
//   - *Encoder: Ready to use
//   - error: *ProtocolError if opts.RawProtocol is not registered
func NewEncoder(opts Options) (*Encoder, error) {
	rawKey := opts.RawProtocol
	if rawKey == "" {
		rawKey = KeyKaseikyo
	}
	raw, err := Lookup(rawKey)
	if err != nil {
		return nil, fmt.Errorf("raw protocol: %w", err)
	}
	return &Encoder{policy: opts.Policy, raw: raw}, nil
}

// Policy returns the encoder's truncation policy.
func (e *Encoder) Policy() Policy { return e.policy }

var defaultEncoder = &Encoder{policy: PolicyMask, raw: descriptors[ProtocolKaseikyo]}

// Encode encodes r with the default (masking) encoder.
func Encode(r Record, protocolKey string) (Code, error) {
	return defaultEncoder.Encode(r, protocolKey)
}

// Encode normalises r, resolves its protocol and produces the Code.
//
// protocolKey overrides r.Protocol when non-empty. The record is encoded
// from, in order of preference: a literal data value (used as-is,
// MSB-first), builder fields (command, with optional address and
// subdevice) or raw timings.
//
// Parameters:
//   - r: The command record
//   - protocolKey: Protocol name, or "" to use r.Protocol
//
// Returns:
//   - Code: The encoded command; zero on error
//   - error: ErrUnsupportedProtocol, ErrFieldParse, ErrFieldRange,
//     ErrMalformedRawSignal or ErrInvalidRecord
func (e *Encoder) Encode(r Record, protocolKey string) (Code, error) {
	key := protocolKey
	if key == "" {
		key = r.Protocol
	}

	f, err := NormalizeRecord(r)
	if err != nil {
		return Code{}, err
	}

	if !f.HasData() && !f.HasAddressCommand() {
		if len(r.Timings) == 0 {
			return Code{}, fmt.Errorf("%w: %q has no data, command or timings", ErrInvalidRecord, r.Name)
		}
		return e.encodeRaw(r, key, f)
	}

	d, err := Resolve(key, f.Bits)
	if err != nil {
		return Code{}, err
	}
	if d.Protocol == ProtocolDenon && isKaseikyoCommand(f.Command) {
		d = descriptors[ProtocolKaseikyo]
	}

	code := Code{
		Name:       r.Name,
		Descriptor: d,
		Bits:       d.WireBits,
		Repeat:     repeatFor(d, f),
	}

	if f.HasData() {
		v := f.Data.Value
		if v > Mask(d.WireBits) {
			if e.policy == PolicyStrict {
				return Code{}, &FieldRangeError{Protocol: d.Key, Field: "data", Value: v, Bits: d.WireBits}
			}
			v &= Mask(d.WireBits)
		}
		code.Value = v
		code.Word = Reverse(v, d.WireBits)
		code.Source = SourceData
		if e.policy == PolicyStrict && d.Protocol.IsNECFamily() {
			if err := checkNECData(r.Name, code.Word); err != nil {
				return Code{}, err
			}
		}
	} else {
		if e.policy == PolicyStrict {
			if err := checkRange(d, f); err != nil {
				return Code{}, err
			}
		}
		word, err := buildWord(d, f)
		if err != nil {
			return Code{}, err
		}
		code.Word = word & Mask(d.WireBits)
		code.Value = Reverse(code.Word, d.WireBits)
		code.Source = SourceBuilder
	}

	code.Hex = FormatHex(code.Value, code.Bits)
	return code, nil
}

func (e *Encoder) encodeRaw(r Record, key string, f Fields) (Code, error) {
	d := e.raw
	if key != "" {
		var err error
		if d, err = Resolve(key, f.Bits); err != nil {
			return Code{}, err
		}
	}

	frame, err := DecodeRaw(r.Timings)
	if err != nil {
		return Code{}, fmt.Errorf("%w: %q has %d timings", err, r.Name, len(r.Timings))
	}

	return Code{
		Name:       r.Name,
		Descriptor: d,
		Bits:       frame.Bits,
		Repeat:     repeatFor(d, f),
		Word:       frame.LSB,
		Value:      frame.MSB,
		Hex:        FormatHex(frame.MSB, frame.Bits),
		Source:     SourceRaw,
	}, nil
}

func repeatFor(d Descriptor, f Fields) int {
	if f.HasRepeat {
		return f.Repeat
	}
	return d.DefaultRepeat
}
