package catalog

import (
	"time"

	"github.com/nerrad567/omote-irgen/internal/generator"
)

// Run is one generation run.
type Run struct {
	ID        string    `json:"id"`
	Device    string    `json:"device"`
	Source    string    `json:"source"`
	Format    string    `json:"format"`
	Generated int       `json:"generated"`
	Skipped   int       `json:"skipped"`
	CreatedAt time.Time `json:"created_at"`
}

// Command is one encoded command of a run.
type Command struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Var      string `json:"var"`
	Protocol string `json:"protocol"`
	Constant string `json:"constant"`
	Hex      string `json:"hex"`
	Bits     uint   `json:"bits"`
	Repeat   int    `json:"repeat"`
	Source   string `json:"source"`
}

// SkippedRecord is a record a run left out.
type SkippedRecord struct {
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
	Reason   string `json:"reason"`
}

// Entry bundles a run with its rows for SaveRun.
type Entry struct {
	Run      Run
	Commands []Command
	Skipped  []SkippedRecord
}

// FromResult converts a generator result. source is the input location
// and format the output format.
func FromResult(res *generator.Result, source, format string) Entry {
	e := Entry{
		Run: Run{
			Device:    res.Device,
			Source:    source,
			Format:    format,
			Generated: len(res.Entries),
			Skipped:   len(res.Skipped),
		},
		Commands: make([]Command, 0, len(res.Entries)),
		Skipped:  make([]SkippedRecord, 0, len(res.Skipped)),
	}
	for _, en := range res.Entries {
		e.Commands = append(e.Commands, Command{
			Position: en.Index,
			Name:     en.Label,
			Var:      en.Var,
			Protocol: en.Code.Descriptor.Key,
			Constant: en.Code.Descriptor.ConstantID,
			Hex:      en.Code.Hex,
			Bits:     en.Code.Bits,
			Repeat:   en.Code.Repeat,
			Source:   en.Code.Source.String(),
		})
	}
	for _, s := range res.Skipped {
		e.Skipped = append(e.Skipped, SkippedRecord{Name: s.Name, Protocol: s.Protocol, Reason: s.Reason})
	}
	return e
}
