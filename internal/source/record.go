package source

import (
	"strconv"
	"strings"

	"github.com/nerrad567/omote-irgen/internal/ir"
)

// Keys that carry the record label or protocol rather than a field.
var (
	nameKeys     = []string{"name", "function", "label", "button", "key"}
	protocolKeys = []string{"protocol", "type"}
)

// newRecord assembles a Record from key/value text, pulling the label and
// protocol out of fields. Keys are lower-cased. A "type" of "parsed" or
// "raw" is a Flipper signal kind, not a protocol. A data value made only
// of integers is taken as raw timings.
func newRecord(fields map[string]string, defaultProtocol string, order ir.ByteOrder) (ir.Record, bool) {
	r := ir.Record{Fields: make(map[string]string, len(fields)), Order: order}

	for k, v := range fields {
		r.Fields[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	r.Name = take(r.Fields, nameKeys)
	if r.Name == "" {
		return ir.Record{}, false
	}

	r.Protocol = r.Fields["protocol"]
	delete(r.Fields, "protocol")
	if isSignalKind(r.Protocol) {
		r.Protocol = ""
	}
	if kind := r.Fields["type"]; kind != "" {
		delete(r.Fields, "type")
		if r.Protocol == "" && !isSignalKind(kind) {
			r.Protocol = kind
		}
	}
	if r.Protocol == "" {
		r.Protocol = defaultProtocol
	}

	if t, ok := parseTimings(r.Fields["data"]); ok {
		r.Timings = t
		delete(r.Fields, "data")
	}

	return r, true
}

func take(fields map[string]string, keys []string) string {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != "" {
			delete(fields, k)
			return v
		}
	}
	return ""
}

func isSignalKind(s string) bool {
	return strings.EqualFold(s, "parsed") || strings.EqualFold(s, "raw")
}

// parseTimings reads a whitespace-separated list of at least two integer
// durations. Any other text is not timings.
func parseTimings(text string) ([]int, bool) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return nil, false
	}
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
