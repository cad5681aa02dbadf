package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/omote-irgen/internal/ir"
)

// ParseYAML parses a YAML document in one of three shapes:
//
//	# a list of commands
//	- {name: Power, protocol: NEC, address: 0x04, command: 0x08}
//
//	# a single device
//	name: tv
//	protocol: NEC
//	commands: [...]
//
//	# an OMOTE config
//	remotes:
//	  tv: {protocol: NEC, commands: [...]}
//
// Scalars keep their source spelling, so "0x0A90" stays hex.
func ParseYAML(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: yaml: %w", ErrMalformed, err)
	}
	if root.Kind == 0 {
		return &Document{Format: FormatYAML}, nil
	}
	doc, err := fromTree(nodeValue(&root))
	if err != nil {
		return nil, err
	}
	doc.Format = FormatYAML
	return doc, nil
}

// ParseJSON parses JSON in the same shapes ParseYAML accepts.
func ParseJSON(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("%w: json: %w", ErrMalformed, err)
	}
	doc, err := fromTree(tree)
	if err != nil {
		return nil, err
	}
	doc.Format = FormatJSON
	return doc, nil
}

// nodeValue converts a YAML node to maps, slices and string scalars.
func nodeValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return nodeValue(n.Content[0])
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = nodeValue(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		s := make([]any, len(n.Content))
		for i, c := range n.Content {
			s[i] = nodeValue(c)
		}
		return s
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	default:
		return n.Value
	}
}

func fromTree(tree any) (*Document, error) {
	switch v := tree.(type) {
	case nil:
		return &Document{}, nil
	case []any:
		recs, err := commandList(v, "")
		return &Document{Records: recs}, err
	case map[string]any:
		if remotes, ok := v["remotes"]; ok {
			return fromRemotes(remotes)
		}
		if cmds, ok := v["commands"]; ok {
			list, ok := cmds.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: commands must be a list", ErrMalformed)
			}
			recs, err := commandList(list, scalar("protocol", v["protocol"]))
			return &Document{Name: scalar("name", v["name"]), Records: recs}, err
		}
	}
	return nil, fmt.Errorf("%w: expected a command list, a device or a remotes map", ErrMalformed)
}

// fromRemotes flattens an OMOTE remotes map. Remotes are visited in name
// order; the document is named only when there is exactly one.
func fromRemotes(tree any) (*Document, error) {
	remotes, ok := tree.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: remotes must be a map", ErrMalformed)
	}

	names := make([]string, 0, len(remotes))
	for name := range remotes {
		names = append(names, name)
	}
	sort.Strings(names)

	doc := &Document{}
	for _, name := range names {
		remote, ok := remotes[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: remote %q must be a map", ErrMalformed, name)
		}
		list, _ := remote["commands"].([]any)
		recs, err := commandList(list, scalar("protocol", remote["protocol"]))
		if err != nil {
			return nil, fmt.Errorf("remote %q: %w", name, err)
		}
		doc.Records = append(doc.Records, recs...)
	}
	if len(names) == 1 {
		doc.Name = names[0]
	}
	return doc, nil
}

func commandList(list []any, defaultProtocol string) ([]ir.Record, error) {
	out := make([]ir.Record, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: command %d is not an object", ErrMalformed, i)
		}
		fields := make(map[string]string, len(obj))
		for k, v := range obj {
			if s := scalar(k, v); s != "" {
				fields[k] = s
			}
		}
		if r, ok := newRecord(fields, defaultProtocol, ir.MSBFirst); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// scalar renders a leaf as field text. A decimal integer under "data" is
// rewritten as hex, since data literals are hex by convention. Lists of
// numbers (raw timings) are joined with spaces. Nested maps yield "".
func scalar(key string, v any) string {
	switch t := v.(type) {
	case string:
		if strings.EqualFold(key, "data") {
			return decimalToHex(t)
		}
		return t
	case json.Number:
		if strings.EqualFold(key, "data") {
			return decimalToHex(t.String())
		}
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, scalar("", e))
		}
		return strings.Join(parts, " ")
	}
	return ""
}

func decimalToHex(s string) string {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return s
	}
	return "0x" + strings.ToUpper(strconv.FormatUint(n, 16))
}
