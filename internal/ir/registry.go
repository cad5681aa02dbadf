package ir

import (
	"strings"
)

// Protocol identifies a supported IR protocol.
//
// Frame builders are selected by switching on this value, never by matching
// protocol strings at the call site.
type Protocol uint8

// Supported protocols.
const (
	ProtocolUnknown Protocol = iota
	ProtocolSIRC12
	ProtocolSIRC15
	ProtocolSIRC20
	ProtocolNEC
	ProtocolNECExt
	ProtocolSamsung32
	ProtocolRC5
	ProtocolRC6Mode0
	ProtocolDenon
	ProtocolKaseikyo
)

// Descriptor describes how a protocol is framed and announced to firmware.
type Descriptor struct {
	// Protocol is the enum tag used to select the frame builder.
	Protocol Protocol

	// Key is the canonical registry key (e.g. "SIRC12", "RC6-0").
	Key string

	// WireBits is the frame width. It equals the width the frame builder
	// produces; output hex strings are padded to this many bits.
	WireBits uint

	// DefaultRepeat is the repeat count used when a record does not set one.
	DefaultRepeat int

	// ConstantID is the firmware constant naming the protocol
	// (e.g. "IR_PROTOCOL_SONY12").
	ConstantID string
}

// Registry keys.
const (
	KeySIRC      = "SIRC"
	KeySIRC12    = "SIRC12"
	KeySIRC15    = "SIRC15"
	KeySIRC20    = "SIRC20"
	KeyNEC       = "NEC"
	KeyNECExt    = "NECEXT"
	KeySamsung32 = "SAMSUNG32"
	KeyRC5       = "RC5"
	KeyRC6Mode0  = "RC6-0"
	KeyDenon     = "DENON"
	KeyKaseikyo  = "KASEIKYO"

	// defaultSIRCBits completes a bare "SIRC" key when no bits field is given.
	defaultSIRCBits = "12"
)

// descriptors is indexed by Protocol.
var descriptors = [...]Descriptor{
	ProtocolSIRC12:    {ProtocolSIRC12, KeySIRC12, 12, 2, "IR_PROTOCOL_SONY12"},
	ProtocolSIRC15:    {ProtocolSIRC15, KeySIRC15, 15, 2, "IR_PROTOCOL_SONY15"},
	ProtocolSIRC20:    {ProtocolSIRC20, KeySIRC20, 20, 2, "IR_PROTOCOL_SONY20"},
	ProtocolNEC:       {ProtocolNEC, KeyNEC, 32, 0, "IR_PROTOCOL_NEC"},
	ProtocolNECExt:    {ProtocolNECExt, KeyNECExt, 32, 0, "IR_PROTOCOL_NEC"},
	ProtocolSamsung32: {ProtocolSamsung32, KeySamsung32, 32, 0, "IR_PROTOCOL_SAMSUNG32"},
	ProtocolRC5:       {ProtocolRC5, KeyRC5, 13, 0, "IR_PROTOCOL_RC5"},
	ProtocolRC6Mode0:  {ProtocolRC6Mode0, KeyRC6Mode0, 20, 0, "IR_PROTOCOL_RC60"},
	ProtocolDenon:     {ProtocolDenon, KeyDenon, 15, 0, "IR_PROTOCOL_DENON"},
	ProtocolKaseikyo:  {ProtocolKaseikyo, KeyKaseikyo, 48, 0, "IR_PROTOCOL_DENON"},
}

// keys maps canonical keys and their synonyms to protocols.
var keys = map[string]Protocol{
	KeySIRC12:     ProtocolSIRC12,
	KeySIRC15:     ProtocolSIRC15,
	KeySIRC20:     ProtocolSIRC20,
	KeyNEC:        ProtocolNEC,
	KeyNECExt:     ProtocolNECExt,
	"NEC-EXT":     ProtocolNECExt,
	"NECEXTENDED": ProtocolNECExt,
	KeySamsung32:  ProtocolSamsung32,
	"SAMSUNG":     ProtocolSamsung32,
	KeyRC5:        ProtocolRC5,
	KeyRC6Mode0:   ProtocolRC6Mode0,
	"RC6":         ProtocolRC6Mode0,
	"RC60":        ProtocolRC6Mode0,
	KeyDenon:      ProtocolDenon,
	"DENON15":     ProtocolDenon,
	KeyKaseikyo:   ProtocolKaseikyo,
	"DENON48":     ProtocolKaseikyo,
	"PANASONIC":   ProtocolKaseikyo,
}

// String returns the canonical registry key.
func (p Protocol) String() string {
	if int(p) < len(descriptors) && p != ProtocolUnknown {
		return descriptors[p].Key
	}
	return "UNKNOWN"
}

// Descriptor returns the registry entry for p.
func (p Protocol) Descriptor() (Descriptor, bool) {
	if p == ProtocolUnknown || int(p) >= len(descriptors) {
		return Descriptor{}, false
	}
	return descriptors[p], true
}

// NormalizeKey canonicalises a protocol name as reported by a source file.
//
// It upper-cases, drops a "PARSED" marker (Flipper "type: parsed" leaks into
// some CSV exports), maps "SONY" to "SIRC" and removes surrounding space.
//
// Example:
//
//	NormalizeKey(" sony15 ") // "SIRC15"
func NormalizeKey(key string) string {
	k := strings.ToUpper(key)
	k = strings.ReplaceAll(k, "SONY", "SIRC")
	k = strings.ReplaceAll(k, "PARSED", "")
	k = strings.ReplaceAll(k, "_", "-")
	k = strings.Join(strings.Fields(k), "")
	if k == "NEC-EXT" || k == "RC6-0" {
		return k
	}
	return strings.ReplaceAll(k, "-", "")
}

// Lookup returns the descriptor registered under key.
//
// The key is normalised first, so "sony12", "SIRC12" and "Sony12" are
// equivalent. A bare "SIRC" is not accepted here; use Resolve.
//
// Returns:
//   - Descriptor: The registry entry
//   - error: *ProtocolError (ErrUnsupportedProtocol) if the key is unknown
func Lookup(key string) (Descriptor, error) {
	p, ok := keys[NormalizeKey(key)]
	if !ok {
		return Descriptor{}, &ProtocolError{Key: key}
	}
	return descriptors[p], nil
}

// Resolve looks up key, completing a bare Sony identifier from bits.
//
// Parameters:
//   - key: Protocol name as reported by the source
//   - bits: Accompanying bit-count field text; "" means 12
//
// Returns:
//   - Descriptor: The registry entry
//   - error: *ProtocolError if the completed key is unknown
func Resolve(key, bits string) (Descriptor, error) {
	if NormalizeKey(key) == KeySIRC {
		b := strings.TrimSpace(bits)
		if b == "" {
			b = defaultSIRCBits
		}
		return Lookup(KeySIRC + b)
	}
	return Lookup(key)
}

// Protocols returns every registered descriptor in enum order.
func Protocols() []Descriptor {
	out := make([]Descriptor, 0, len(descriptors)-1)
	for _, d := range descriptors[1:] {
		out = append(out, d)
	}
	return out
}
