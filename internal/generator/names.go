package generator

import (
	"strconv"
	"strings"
)

// MakeVar derives a C identifier from a command label: upper-cased, each
// character outside [A-Za-z0-9] replaced by "_", and prefixed "KEY_" when
// it would start with a digit. An empty label gives "KEY".
func MakeVar(label string) string {
	var b strings.Builder
	b.Grow(len(label) + 4)
	for _, r := range strings.ToUpper(strings.TrimSpace(label)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	s := b.String()
	switch {
	case s == "":
		return "KEY"
	case s[0] >= '0' && s[0] <= '9':
		return "KEY_" + s
	}
	return s
}

// namer hands out unique identifiers, suffixing repeats "_2", "_3"...
type namer struct {
	used map[string]bool
}

func newNamer() *namer {
	return &namer{used: make(map[string]bool)}
}

func (n *namer) unique(base string) string {
	name := base
	for i := 2; n.used[name]; i++ {
		name = base + "_" + strconv.Itoa(i)
	}
	n.used[name] = true
	return name
}
