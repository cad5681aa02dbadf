// Package logging provides structured logging for irgen.
//
// It wraps log/slog so every entry carries the service name and version.
// Text output is the default since irgen mostly runs from a terminal; JSON
// is available for the API server and CI pipelines.
//
// Logs go to stderr unless configured otherwise, so generated output can be
// piped from stdout.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # text, json
//	  output: "stderr"   # stderr, stdout
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("generated", "device", "SonyBravia", "commands", 42)
//	logger.Warn("record skipped", "name", rec.Name, "error", err)
//
// Never log MQTT passwords or InfluxDB tokens.
package logging
