// Package ir encodes consumer-infrared remote commands into the bit patterns
// transmitted on the IR bus.
//
// A command arrives as a Record: a protocol name plus textual address,
// subdevice and command fields (or a literal data word, or raw mark/space
// timings). The package normalises the fields, routes the record through a
// per-protocol frame builder and produces a Code carrying the frame word in
// both wire (LSB-first) and display (MSB-first) order, its bit width and the
// repeat count.
//
// # Supported Protocols
//
//   - SIRC12, SIRC15, SIRC20: Sony 12/15/20-bit
//   - NEC, NECEXT, SAMSUNG32: 32-bit address/command/~command frames
//   - RC5 (13-bit) and RC6-0 (20-bit, mode 0)
//   - DENON: Denon 15-bit
//   - KASEIKYO: Denon/Panasonic 48-bit with vendor parity and XOR checksum
//
// # Usage
//
//	code, err := ir.Encode(ir.Record{
//	    Name:     "Volume_down",
//	    Protocol: "SIRC",
//	    Fields:   map[string]string{"address": "1", "command": "0x13"},
//	}, "")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(code.Hex, code.Bits, code.Repeat) // 0xC90 12 2
//
// # Truncation Policy
//
// By default fields wider than their protocol slot are masked, which keeps a
// best-effort generator moving through imperfect remote dumps. PolicyStrict
// turns the same condition into a FieldRangeError.
//
// # Thread Safety
//
// Every function in this package is pure. An Encoder holds only immutable
// options and is safe for concurrent use from multiple goroutines.
//
// # References
//
//   - SIRC: https://www.sbprojects.net/knowledge/ir/sirc.php
//   - NEC: https://www.sbprojects.net/knowledge/ir/nec.php
//   - RC5/RC6: https://www.sbprojects.net/knowledge/ir/rc5.php
//   - Kaseikyo: https://github.com/Arduino-IRremote/Arduino-IRremote
package ir
