package emit

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/nerrad567/omote-irgen/internal/generator"
)

var headerTmpl = template.Must(template.New("header").Parse(`#pragma once
// Auto-generated by {{.Generator}}. Do not edit.
void register_device_{{.Device}}(void);

{{range .Commands}}extern uint16_t {{.Var}};
{{end}}`))

var sourceTmpl = template.Must(template.New("source").Parse(`// Auto-generated by {{.Generator}}. Do not edit.
#include <string>
#include "applicationInternal/commandHandler.h"
#include "applicationInternal/hardware/hardwarePresenter.h"
#include "device_{{.Device}}.h"

{{range .Commands}}uint16_t {{.Var}};
{{end}}
void register_device_{{.Device}}() {
{{- range .Commands}}
    register_command(&{{.Var}}, makeCommandData(IR, {std::to_string({{.Constant}}), "{{.Payload}}"})); // {{.Label}}
{{- end}}
}
`))

type omoteCommand struct {
	Var      string
	Constant string
	Payload  string
	Label    string
}

type omoteDevice struct {
	Generator string
	Device    string
	Commands  []omoteCommand
}

// OMOTE renders the device_<name>.h and device_<name>.cpp pair.
func OMOTE(res *generator.Result, opts Options) ([]File, error) {
	dev := omoteDevice{
		Generator: opts.generator(),
		Device:    DeviceIdent(res.Device),
		Commands:  make([]omoteCommand, 0, len(res.Entries)),
	}
	for _, e := range res.Entries {
		dev.Commands = append(dev.Commands, omoteCommand{
			Var:      e.Var,
			Constant: e.Code.Descriptor.ConstantID,
			Payload:  PayloadFor(e.Code, opts),
			Label:    commentSafe(e.Label),
		})
	}

	var h, cpp bytes.Buffer
	if err := headerTmpl.Execute(&h, dev); err != nil {
		return nil, fmt.Errorf("rendering header: %w", err)
	}
	if err := sourceTmpl.Execute(&cpp, dev); err != nil {
		return nil, fmt.Errorf("rendering source: %w", err)
	}

	base := "device_" + dev.Device
	return []File{
		{Name: base + ".h", Data: h.Bytes()},
		{Name: base + ".cpp", Data: cpp.Bytes()},
	}, nil
}

// commentSafe keeps a label on one line of a // comment.
func commentSafe(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
