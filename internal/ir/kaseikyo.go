package ir

// KaseikyoFrame holds the component fields of a 48-bit Kaseikyo frame.
type KaseikyoFrame struct {
	Vendor      uint16
	Parity      byte
	AddressHigh byte
	AddressLow  byte
	Command     byte
	Checksum    byte
}

// Word packs the frame:
// vendor(16) | addressHigh(8) | addressLow(8) | command(8) | checksum(8).
func (k KaseikyoFrame) Word() uint64 {
	return uint64(k.Vendor)<<32 |
		uint64(k.AddressHigh)<<24 |
		uint64(k.AddressLow)<<16 |
		uint64(k.Command)<<8 |
		uint64(k.Checksum)
}

// Valid reports whether the parity nibble and checksum agree with the
// other fields.
func (k KaseikyoFrame) Valid() bool {
	return k.Parity == vendorParity(k.Vendor) &&
		k.AddressHigh>>4 == k.Parity &&
		k.Checksum == k.AddressHigh^k.AddressLow^k.Command
}

// BuildKaseikyo derives a Kaseikyo frame from the two byte groups of a
// remote dump: four address bytes and two command bytes.
//
// Steps, in order (the checksum depends on already-transformed fields):
//  1. vendor = bit-reversed 16-bit little-endian word of address bytes 1-2
//  2. parity = XOR of the vendor's four nibbles
//  3. addrHigh = parity<<4 | high nibble of bit-reversed address byte 0;
//     addrLow = bit-reversed address byte 3
//  4. command = bit-reversed 16-bit little-endian command word >> 4, 8 bits
//  5. checksum = addrHigh ^ addrLow ^ command
//
// Example (Panasonic vendor 0x2002):
//
//	BuildKaseikyo([4]byte{0x80, 0x02, 0x20, 0x80}, [2]byte{0x3D, 0xBD}).Word()
//	// 0x40040001CBCA
func BuildKaseikyo(address [4]byte, command [2]byte) KaseikyoFrame {
	var k KaseikyoFrame

	k.Vendor = reverse16(uint16(address[1]) | uint16(address[2])<<8)
	k.Parity = vendorParity(k.Vendor)
	k.AddressHigh = k.Parity<<4 | reverse8(address[0])>>4
	k.AddressLow = reverse8(address[3])
	k.Command = byte(reverse16(uint16(command[0])|uint16(command[1])<<8) >> 4)
	k.Checksum = k.AddressHigh ^ k.AddressLow ^ k.Command

	return k
}

// SplitKaseikyo unpacks a 48-bit frame word into its components. The
// parity nibble is read from the address high byte.
func SplitKaseikyo(word uint64) KaseikyoFrame {
	k := KaseikyoFrame{
		Vendor:      uint16(word >> 32),
		AddressHigh: byte(word >> 24),
		AddressLow:  byte(word >> 16),
		Command:     byte(word >> 8),
		Checksum:    byte(word),
	}
	k.Parity = k.AddressHigh >> 4
	return k
}

func vendorParity(vendor uint16) byte {
	v := vendor ^ vendor>>8
	return byte(v^v>>4) & 0x0F
}

// kaseikyoGroups extracts the address and command byte groups from
// normalised fields. Missing bytes read as zero.
func kaseikyoGroups(f Fields) (address [4]byte, command [2]byte) {
	for i := range address {
		address[i] = f.Address.ByteAt(i)
	}
	for i := range command {
		command[i] = f.Command.ByteAt(i)
	}
	return address, command
}

// isKaseikyoCommand reports whether a command byte pair lacks the
// one's-complement relation of the simple Denon 15-bit form.
func isKaseikyoCommand(command Field) bool {
	return len(command.Bytes) >= 2 && command.Bytes[1] != ^command.Bytes[0]
}
