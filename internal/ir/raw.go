package ir

const (
	// rawHeaderEntries is the leading mark and space skipped before data bits.
	rawHeaderEntries = 2

	// rawOneThreshold is the space duration (µs) above which a bit reads as 1.
	rawOneThreshold = 1000

	// rawMaxBits caps decoding at the widest supported frame.
	rawMaxBits = 48
)

// RawFrame is the result of threshold-decoding raw timings.
type RawFrame struct {
	// Bits is the number of decoded bits, at most 48. Short captures give
	// fewer.
	Bits uint

	// LSB holds the bits with the first-arrived bit at position 0.
	LSB uint64

	// MSB holds the bits with the first-arrived bit most significant.
	MSB uint64
}

// DecodeRaw demodulates pulse-distance timings into a bit sequence.
//
// The first mark and space are the header. Each following (mark, space)
// pair is one bit: a space longer than 1000 µs is 1, anything else 0.
// Decoding stops after 48 bits or when timings run out; a trailing mark
// without its space is ignored. Negative durations (some capture tools
// sign spaces) are read by magnitude.
//
// This is approximate: there is no checksum validation and noisy captures
// may misdecode.
//
// Returns:
//   - RawFrame: Decoded bits in both orders
//   - error: ErrMalformedRawSignal if there is no header pair
func DecodeRaw(timings []int) (RawFrame, error) {
	if len(timings) < rawHeaderEntries {
		return RawFrame{}, ErrMalformedRawSignal
	}

	var f RawFrame
	for i := rawHeaderEntries; i+1 < len(timings) && f.Bits < rawMaxBits; i += 2 {
		if abs(timings[i+1]) > rawOneThreshold {
			f.LSB |= 1 << f.Bits
		}
		f.Bits++
	}
	f.MSB = Reverse(f.LSB, f.Bits)
	return f, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
