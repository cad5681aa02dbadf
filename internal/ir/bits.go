package ir

import "math/bits"

// maxWordBits is the widest word the primitives below handle.
const maxWordBits = 64

// Reverse returns value with its low n bits in reverse order.
//
// Bits of value at position n and above are discarded. Reverse(v, 0) is 0.
// At a fixed width the operation is its own inverse:
//
//	Reverse(Reverse(v, n), n) == v & Mask(n)
//
// Example:
//
//	Reverse(0x93, 12) // 0xC90 (SIRC12 device=1 command=0x13)
func Reverse(value uint64, n uint) uint64 {
	if n == 0 {
		return 0
	}
	if n > maxWordBits {
		n = maxWordBits
	}
	return bits.Reverse64(value) >> (maxWordBits - n)
}

// Mask returns a mask of the low n bits.
func Mask(n uint) uint64 {
	if n >= maxWordBits {
		return ^uint64(0)
	}
	return 1<<n - 1
}

// reverse8 reverses the bits of a byte.
func reverse8(b byte) byte { return bits.Reverse8(b) }

// reverse16 reverses the bits of a 16-bit word.
func reverse16(w uint16) uint16 { return bits.Reverse16(w) }

// hexDigits returns the number of hex nibbles needed to print n bits.
func hexDigits(n uint) int {
	if n == 0 {
		return 1
	}
	return int((n + 3) / 4)
}
