package emit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nerrad567/omote-irgen/internal/generator"
	"github.com/nerrad567/omote-irgen/internal/ir"
)

// ErrUnknownFormat is returned for an output format other than omote,
// yaml or json.
var ErrUnknownFormat = errors.New("emit: unknown output format")

// Output formats.
const (
	FormatOMOTE = "omote"
	FormatYAML  = "yaml"
	FormatJSON  = "json"
)

// Options controls rendering.
type Options struct {
	// NECLSBFirst writes NEC-family codes (NEC, NECEXT, SAMSUNG32) as the
	// LSB-first wire word, the way NEC code tables are usually printed.
	NECLSBFirst bool

	// Generator names the tool in file banners. Empty means "irgen".
	Generator string
}

func (o Options) generator() string {
	if o.Generator == "" {
		return "irgen"
	}
	return o.Generator
}

// File is one rendered output file.
type File struct {
	Name string
	Data []byte
}

// Render renders res in format.
func Render(format string, res *generator.Result, opts Options) ([]File, error) {
	switch strings.ToLower(format) {
	case FormatOMOTE:
		return OMOTE(res, opts)
	case FormatYAML:
		f, err := YAML(res, opts)
		return []File{f}, err
	case FormatJSON:
		f, err := JSON(res, opts)
		return []File{f}, err
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteFiles writes files into dir, creating it if needed. Each file is
// written to a temporary name and renamed into place.
func WriteFiles(dir string, files []File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, f.Data, 0o644); err != nil { //nolint:gosec // generated sources are world-readable
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}
	return nil
}

// DeviceIdent makes a device name usable inside a C identifier and a
// file name: characters outside [A-Za-z0-9_] become "_".
func DeviceIdent(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		if r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "device"
	}
	return b.String()
}

// HexFor formats code per opts.
func HexFor(code ir.Code, opts Options) string {
	return code.HexOrder(bitOrder(code, opts))
}

// PayloadFor returns the "0xHEX:bits:repeat" payload per opts.
func PayloadFor(code ir.Code, opts Options) string {
	return code.Payload(bitOrder(code, opts))
}

func bitOrder(code ir.Code, opts Options) ir.BitOrder {
	if opts.NECLSBFirst && code.Descriptor.Protocol.IsNECFamily() {
		return ir.WireOrder
	}
	return ir.DisplayOrder
}

// FirmwareProtocol returns the protocol name the OMOTE config parser
// accepts for d. The Sony variants share "SIRC" and NEC variants "NEC";
// nbits tells them apart.
func FirmwareProtocol(d ir.Descriptor) string {
	switch d.Protocol {
	case ir.ProtocolSIRC12, ir.ProtocolSIRC15, ir.ProtocolSIRC20:
		return "SIRC"
	case ir.ProtocolNEC, ir.ProtocolNECExt:
		return "NEC"
	}
	return d.Key
}
