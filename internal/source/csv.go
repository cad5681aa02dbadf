package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/nerrad567/omote-irgen/internal/ir"
)

// ParseCSV parses a CSV table with a header row. Column names are matched
// case-insensitively ("Function" or "Name" for the label, "Protocol" or
// "Type" for the protocol, then Address, Device, Subdevice, Command,
// Data, Repeat, Bits...). Rows without a label are skipped. Multi-byte
// cells are read most-significant byte first.
func ParseCSV(data []byte) ([]ir.Record, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: csv header: %w", ErrMalformed, err)
	}

	var out []ir.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv: %w", ErrMalformed, err)
		}

		fields := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) && row[i] != "" {
				fields[col] = row[i]
			}
		}
		if r, ok := newRecord(fields, "", ir.MSBFirst); ok {
			out = append(out, r)
		}
	}
	return out, nil
}
