package emit

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/omote-irgen/internal/generator"
)

// Config is the OMOTE firmware config document.
type Config struct {
	Remotes map[string]Remote `yaml:"remotes" json:"remotes"`
}

// Remote is one device entry under "remotes".
type Remote struct {
	Protocol string    `yaml:"protocol" json:"protocol"`
	Commands []Command `yaml:"commands" json:"commands"`
}

// Command is one IR command of a remote.
type Command struct {
	Name     string `yaml:"name" json:"name"`
	Protocol string `yaml:"protocol" json:"protocol"`
	Data     string `yaml:"data" json:"data"`
	NBits    uint   `yaml:"nbits" json:"nbits"`
	Repeats  int    `yaml:"repeats" json:"repeats"`
}

// BuildConfig converts res to a single-remote config document. The
// remote's protocol is the most common one among its commands.
func BuildConfig(res *generator.Result, opts Options) Config {
	remote := Remote{Commands: make([]Command, 0, len(res.Entries))}

	counts := make(map[string]int)
	best := 0
	for _, e := range res.Entries {
		proto := FirmwareProtocol(e.Code.Descriptor)
		remote.Commands = append(remote.Commands, Command{
			Name:     e.Label,
			Protocol: proto,
			Data:     HexFor(e.Code, opts),
			NBits:    e.Code.Bits,
			Repeats:  e.Code.Repeat,
		})
		counts[proto]++
		if counts[proto] > best {
			best = counts[proto]
			remote.Protocol = proto
		}
	}

	return Config{Remotes: map[string]Remote{DeviceIdent(res.Device): remote}}
}

// YAML renders res as <device>.yaml.
func YAML(res *generator.Result, opts Options) (File, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Auto-generated by %s. Do not edit.\n", opts.generator())

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(BuildConfig(res, opts)); err != nil {
		return File{}, fmt.Errorf("rendering yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return File{}, fmt.Errorf("rendering yaml: %w", err)
	}
	return File{Name: DeviceIdent(res.Device) + ".yaml", Data: buf.Bytes()}, nil
}

// JSON renders res as <device>.json.
func JSON(res *generator.Result, opts Options) (File, error) {
	data, err := json.MarshalIndent(BuildConfig(res, opts), "", "  ")
	if err != nil {
		return File{}, fmt.Errorf("rendering json: %w", err)
	}
	return File{Name: DeviceIdent(res.Device) + ".json", Data: append(data, '\n')}, nil
}
