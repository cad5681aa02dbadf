// Package emit renders a generator.Result for the OMOTE firmware.
//
// Three formats are produced:
//
//   - omote: a device_<name>.h / device_<name>.cpp pair registering each
//     command with the firmware's command handler
//   - yaml: an OMOTE config document ("remotes:" map) for config.yml
//   - json: the same document as JSON, the form embedded in firmware builds
//
// Rendering is pure; WriteFiles puts the result on disk.
package emit
