package ir

import "fmt"

// NEC protocol references
// https://www.sbprojects.net/knowledge/ir/nec.php
// https://techdocs.altium.com/display/FPGA/NEC+Infrared+Transmission+Protocol

// SplitNECAddress splits an NEC address into low and high bytes.
//
// Addresses in the 8-bit range use inverse validation: the high byte is
// sent as the complement of the low byte.
func SplitNECAddress(address uint16) (addrLow, addrHigh byte) {
	addrLow = byte(address & 0xff)
	addrHigh = byte(address >> 8)
	if addrHigh == 0 {
		addrHigh = ^addrLow
	}
	return addrLow, addrHigh
}

// MakeNECAddress assembles an NEC address from low and high bytes.
//
// A high byte equal to ^addrLow is the 8-bit inverse-validated form and
// yields the 8-bit address.
func MakeNECAddress(addrLow, addrHigh byte) uint16 {
	if addrHigh == ^addrLow {
		return uint16(addrLow)
	}
	return uint16(addrHigh)<<8 | uint16(addrLow)
}

// MakeNECWord assembles the 32-bit wire word from its four bytes:
// addrLow[0:8) addrHigh[8:16) command[16:24) ~command[24:32).
func MakeNECWord(addrLow, addrHigh, command byte) uint32 {
	return uint32(^command)<<24 | uint32(command)<<16 | uint32(addrHigh)<<8 | uint32(addrLow)
}

// MakeRawNECData assembles a standard NEC word, applying inverse
// validation to 8-bit addresses.
func MakeRawNECData(address uint16, command byte) uint32 {
	addrLow, addrHigh := SplitNECAddress(address)
	return MakeNECWord(addrLow, addrHigh, command)
}

// SplitRawNECData breaks a 32-bit NEC word into address and command.
// valid is false when the command complement byte does not match.
func SplitRawNECData(data uint32) (valid bool, address uint16, command byte) {
	addrLow := byte(data)
	addrHigh := byte(data >> 8)
	command = byte(data >> 16)
	invCmd := byte(data >> 24)
	address = MakeNECAddress(addrLow, addrHigh)
	return command == ^invCmd, address, command
}

// necAddressBytes picks the two address bytes sent for the extended
// forms, by significance of the address value.
//
//   - NECEXT: the 16-bit address is sent verbatim
//   - SAMSUNG32: an empty high byte repeats the low byte
//
// Standard NEC goes through MakeRawNECData for its inverse validation.
func necAddressBytes(p Protocol, address Field) (lo, hi byte) {
	lo, hi = address.Octet(0), address.Octet(1)
	if hi == 0 && p == ProtocolSamsung32 {
		hi = lo
	}
	return lo, hi
}

// checkNECData verifies the command complement byte of an NEC-family
// wire word.
func checkNECData(name string, word uint64) error {
	valid, address, command := SplitRawNECData(uint32(word))
	if !valid {
		return fmt.Errorf("%w: %q data fails the NEC command check (address 0x%X, command 0x%02X)",
			ErrInvalidRecord, name, address, command)
	}
	return nil
}

// IsNECFamily reports whether p sends the 32-bit NEC frame layout.
func (p Protocol) IsNECFamily() bool {
	return p == ProtocolNEC || p == ProtocolNECExt || p == ProtocolSamsung32
}
