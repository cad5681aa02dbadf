// Package config handles loading and validating irgen configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (IRGEN_*)
//   - Validation of required fields
//   - Default value handling
//
// Command-line flags are applied on top of the loaded Config by cmd/irgen.
//
// Security Considerations:
//   - MQTT passwords and InfluxDB tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/irgen.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Generator.OutDir)
package config
