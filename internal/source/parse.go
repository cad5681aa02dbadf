package source

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nerrad567/omote-irgen/internal/ir"
)

// Format identifies a source file format.
type Format string

// Supported source formats.
const (
	FormatFlipper Format = "flipper"
	FormatCSV     Format = "csv"
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
)

// Document is a parsed source.
type Document struct {
	// Name is the remote label the source carries, or "".
	Name string

	// Format is the format the source was parsed as.
	Format Format

	// Records are the commands in source order.
	Records []ir.Record
}

// DetectFormat picks a format from the file extension, falling back to
// the content when the extension is missing or unknown.
func DetectFormat(data []byte, filename string) (Format, error) {
	switch strings.ToLower(extension(filename)) {
	case ".ir":
		return FormatFlipper, nil
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return sniff(data)
}

// flipperKindRe matches the signal kind line every Flipper record carries.
var flipperKindRe = regexp.MustCompile(`(?im)^type:[ \t]*(parsed|raw)[ \t]*$`)

func sniff(data []byte) (Format, error) {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return "", ErrUnknownFormat
	case bytes.HasPrefix(trimmed, []byte("Filetype:")) || flipperKindRe.Match(trimmed):
		return FormatFlipper, nil
	case trimmed[0] == '{' || trimmed[0] == '[':
		return FormatJSON, nil
	}

	first, _, _ := bytes.Cut(trimmed, []byte("\n"))
	switch {
	case bytes.Contains(first, []byte(":")):
		return FormatYAML, nil
	case bytes.Contains(first, []byte(",")):
		return FormatCSV, nil
	}
	return "", ErrUnknownFormat
}

// Parse detects the format of data and parses it.
//
// Parameters:
//   - data: Source content
//   - filename: Path or URL the content came from; only its extension is used
//
// Returns:
//   - *Document: Parsed records, possibly none
//   - error: ErrUnknownFormat or ErrMalformed
func Parse(data []byte, filename string) (*Document, error) {
	format, err := DetectFormat(data, filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return ParseAs(data, format)
}

// ParseAs parses data in the given format.
func ParseAs(data []byte, format Format) (*Document, error) {
	switch format {
	case FormatFlipper:
		text := string(data)
		return &Document{Name: RemoteName(text), Format: FormatFlipper, Records: ParseFlipper(text)}, nil
	case FormatCSV:
		recs, err := ParseCSV(data)
		if err != nil {
			return nil, err
		}
		return &Document{Format: FormatCSV, Records: recs}, nil
	case FormatYAML:
		return ParseYAML(data)
	case FormatJSON:
		return ParseJSON(data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// extension returns the extension of a path or URL, ignoring any query.
func extension(location string) string {
	if IsURL(location) {
		location, _, _ = strings.Cut(location, "?")
		return path.Ext(location)
	}
	return filepath.Ext(location)
}

// BaseName returns the file name of location without directory or
// extension, sanitised as a device name.
func BaseName(location string) string {
	if IsURL(location) {
		location, _, _ = strings.Cut(location, "?")
		location = path.Base(location)
	} else {
		location = filepath.Base(location)
	}
	return SanitizeName(strings.TrimSuffix(location, extension(location)))
}
