// Package source loads remote-control descriptions and turns them into
// ir.Records.
//
// A source is located by path or http(s) URL (Fetch) and parsed by
// format (Parse):
//
//   - Flipper Zero ".ir" signal files (Flipper-IRDB)
//   - CSV exports with a header row
//   - YAML or JSON: a list of commands, a single-device document, or an
//     OMOTE "remotes:" config map
//
// Parsing never encodes. Fields are passed through as text so the ir
// package applies one set of normalisation rules whatever the format.
package source
