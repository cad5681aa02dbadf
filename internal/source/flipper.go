package source

import (
	"regexp"
	"strings"

	"github.com/nerrad567/omote-irgen/internal/ir"
)

// Header keys of a Flipper signal file that belong to no record.
var flipperHeaderKeys = map[string]bool{
	"filetype": true,
	"version":  true,
}

// ParseFlipper parses a Flipper Zero ".ir" signal file.
//
// Each record starts at a "name:" line and runs to the next "name:",
// blank line or "#" comment. Keys are case-folded. Raw signals are kept
// with their timings from "data:". Flipper writes multi-byte fields
// least-significant byte first, so records use ir.LSBFirst.
func ParseFlipper(text string) []ir.Record {
	var (
		out []ir.Record
		cur map[string]string
	)
	flush := func() {
		if cur == nil {
			return
		}
		if r, ok := newRecord(cur, "", ir.LSBFirst); ok {
			out = append(out, r)
		}
		cur = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			flush()
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)

		switch {
		case k == "name":
			flush()
			cur = map[string]string{"name": v}
		case cur == nil, flipperHeaderKeys[k]:
		case k == "data" && cur["data"] != "":
			// Long raw captures may continue on further data lines.
			cur["data"] += " " + v
		default:
			cur[k] = v
		}
	}
	flush()
	return out
}

// remoteLabelRe matches the "# # Sony_Bravia.ir" banner Flipper-IRDB files
// carry in their header comments.
var remoteLabelRe = regexp.MustCompile(`(?im)^#[ \t]+#[ \t]*(.+?)\.ir`)

// RemoteName extracts the remote label from a Flipper-IRDB header comment,
// sanitised for use as a file name and identifier: commas removed, spaces
// to underscores, doubled underscores collapsed, underscores trimmed.
// It returns "" when the file has no label.
func RemoteName(text string) string {
	m := remoteLabelRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return SanitizeName(m[1])
}

// SanitizeName makes s safe as a device name.
func SanitizeName(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}
