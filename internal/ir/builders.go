package ir

// Frame builders. Each takes field values already reduced to integers and
// returns the LSB-first wire word. Inputs wider than their slot are masked.

// BuildSIRC12 packs command[0:7) device[7:12).
func BuildSIRC12(device, command uint64) uint64 {
	return (device&0x1F)<<7 | command&0x7F
}

// BuildSIRC15 packs command[0:7) device[7:12) subdevice[12:15).
func BuildSIRC15(device, subdevice, command uint64) uint64 {
	return (subdevice&0x07)<<12 | BuildSIRC12(device, command)
}

// BuildSIRC20 packs command[0:7) device[7:12) subdevice[13:18).
func BuildSIRC20(device, subdevice, command uint64) uint64 {
	return (subdevice&0x1F)<<13 | BuildSIRC12(device, command)
}

// BuildNEC packs addrLow[0:8) addrHigh[8:16) command[16:24) ~command[24:32).
func BuildNEC(addrLow, addrHigh, command byte) uint64 {
	return uint64(MakeNECWord(addrLow, addrHigh, command))
}

// BuildRC5 packs the two start bits (12 and 11), device[6:11) and
// command[0:6).
func BuildRC5(device, command uint64) uint64 {
	return 1<<12 | 1<<11 | (device&0x1F)<<6 | command&0x3F
}

// BuildRC6Mode0 packs the start bit (19), mode bit (18), a zero trailer
// bit (17), device[8:13) and command[0:8).
func BuildRC6Mode0(device, command uint64) uint64 {
	return 1<<19 | 1<<18 | (device&0x1F)<<8 | command&0xFF
}

// BuildDenon packs two zero bits, device[2:7) and command[7:15).
func BuildDenon(device, command uint64) uint64 {
	return (command&0xFF)<<7 | (device&0x1F)<<2
}

// buildWord dispatches to the builder for d.Protocol.
func buildWord(d Descriptor, f Fields) (uint64, error) {
	switch d.Protocol {
	case ProtocolSIRC12:
		return BuildSIRC12(f.Address.Value, f.Command.Value), nil
	case ProtocolSIRC15:
		return BuildSIRC15(f.Address.Value, f.Subdevice.Value, f.Command.Value), nil
	case ProtocolSIRC20:
		return BuildSIRC20(f.Address.Value, f.Subdevice.Value, f.Command.Value), nil
	case ProtocolNEC:
		return uint64(MakeRawNECData(uint16(f.Address.Value), f.Command.Octet(0))), nil
	case ProtocolNECExt, ProtocolSamsung32:
		lo, hi := necAddressBytes(d.Protocol, f.Address)
		return BuildNEC(lo, hi, f.Command.Octet(0)), nil
	case ProtocolRC5:
		return BuildRC5(f.Address.Value, f.Command.Value), nil
	case ProtocolRC6Mode0:
		return BuildRC6Mode0(f.Address.Value, f.Command.Value), nil
	case ProtocolDenon:
		return BuildDenon(f.Address.Value, uint64(f.Command.Octet(0))), nil
	case ProtocolKaseikyo:
		return BuildKaseikyo(kaseikyoGroups(f)).Word(), nil
	}
	return 0, &ProtocolError{Key: d.Key}
}

// slot is the width of one builder input.
type slot struct {
	field string
	width uint
}

// Slot widths per protocol, checked in strict mode. Byte-addressed inputs
// (NEC family, Denon and Kaseikyo commands) are checked by checkByteSlots:
// NEC and Denon by value significance, Kaseikyo by source position.
var slots = map[Protocol][]slot{
	ProtocolSIRC12:   {{"address", 5}, {"command", 7}},
	ProtocolSIRC15:   {{"address", 5}, {"subdevice", 3}, {"command", 7}},
	ProtocolSIRC20:   {{"address", 5}, {"subdevice", 5}, {"command", 7}},
	ProtocolRC5:      {{"address", 5}, {"command", 6}},
	ProtocolRC6Mode0: {{"address", 5}, {"command", 8}},
	ProtocolDenon:    {{"address", 5}},
}

// checkRange reports the first field of f that does not fit its slot.
func checkRange(d Descriptor, f Fields) error {
	for _, s := range slots[d.Protocol] {
		v := f.byName(s.field).Value
		if v > Mask(s.width) {
			return &FieldRangeError{Protocol: d.Key, Field: s.field, Value: v, Bits: s.width}
		}
	}
	return checkByteSlots(d, f)
}

func checkByteSlots(d Descriptor, f Fields) error {
	switch d.Protocol {
	case ProtocolNEC, ProtocolNECExt, ProtocolSamsung32:
		if !f.Address.fitsOctets(2) {
			return &FieldRangeError{Protocol: d.Key, Field: "address", Value: f.Address.Value, Bits: 16}
		}
		if !f.Command.fitsCommandByte() {
			return &FieldRangeError{Protocol: d.Key, Field: "command", Value: f.Command.Value, Bits: 8}
		}
	case ProtocolDenon:
		if !f.Command.fitsCommandByte() {
			return &FieldRangeError{Protocol: d.Key, Field: "command", Value: f.Command.Value, Bits: 8}
		}
	case ProtocolKaseikyo:
		if !f.Address.fitsBytes(4) {
			return &FieldRangeError{Protocol: d.Key, Field: "address", Value: f.Address.Value, Bits: 32}
		}
		if !f.Command.fitsBytes(2) {
			return &FieldRangeError{Protocol: d.Key, Field: "command", Value: f.Command.Value, Bits: 16}
		}
	}
	return nil
}

func (f Fields) byName(name string) Field {
	switch name {
	case "address":
		return f.Address
	case "subdevice":
		return f.Subdevice
	case "command":
		return f.Command
	case "data":
		return f.Data
	}
	return Field{}
}
