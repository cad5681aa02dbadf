package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for irgen.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Generator GeneratorConfig `yaml:"generator"`
	Source    SourceConfig    `yaml:"source"`
	Logging   LoggingConfig   `yaml:"logging"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	API       APIConfig       `yaml:"api"`
}

// Output formats accepted by generator.format.
const (
	FormatOMOTE = "omote"
	FormatYAML  = "yaml"
	FormatJSON  = "json"
)

// GeneratorConfig controls how a batch of records is encoded and written.
type GeneratorConfig struct {
	// OutDir is where generated files are written.
	OutDir string `yaml:"out_dir"`

	// Format is one of "omote" (C++ .h/.cpp pair), "yaml" or "json".
	Format string `yaml:"format"`

	// Strict rejects out-of-range fields instead of masking them.
	Strict bool `yaml:"strict"`

	// FailFast aborts the batch on the first record that fails to encode.
	// Default behaviour is to skip and log.
	FailFast bool `yaml:"fail_fast"`

	// NECLSBFirst emits NEC-family codes as the LSB-first wire word.
	NECLSBFirst bool `yaml:"nec_lsb_first"`

	// RawProtocol is assumed for raw-timing records without a protocol.
	RawProtocol string `yaml:"raw_protocol"`

	// Workers bounds parallel encoding. 0 means one per CPU.
	Workers int `yaml:"workers"`
}

// SourceConfig controls fetching of remote descriptions.
type SourceConfig struct {
	FetchTimeout int    `yaml:"fetch_timeout"` // seconds
	UserAgent    string `yaml:"user_agent"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// CatalogConfig contains the SQLite command catalog settings.
type CatalogConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MetricsConfig contains Prometheus export settings.
type MetricsConfig struct {
	// Textfile is written after each run for the node_exporter textfile
	// collector. Empty disables the export.
	Textfile string `yaml:"textfile"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: IRGEN_SECTION_KEY
// For example: IRGEN_CATALOG_PATH, IRGEN_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// FromEnv returns the defaults with environment overrides applied, for runs
// without a config file.
func FromEnv() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Generator: GeneratorConfig{
			OutDir:      "./generated",
			Format:      FormatOMOTE,
			RawProtocol: "KASEIKYO",
		},
		Source: SourceConfig{
			FetchTimeout: 30,
			UserAgent:    "irgen",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Catalog: CatalogConfig{
			Path:        "./data/irgen.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "irgen",
			},
			QoS:         1,
			TopicPrefix: "omote",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "irgen",
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8585,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: IRGEN_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Generator
	if v := os.Getenv("IRGEN_GENERATOR_OUT_DIR"); v != "" {
		cfg.Generator.OutDir = v
	}
	if v := os.Getenv("IRGEN_GENERATOR_FORMAT"); v != "" {
		cfg.Generator.Format = v
	}
	if v := os.Getenv("IRGEN_GENERATOR_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generator.Workers = n
		}
	}

	// Logging
	if v := os.Getenv("IRGEN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Catalog
	if v := os.Getenv("IRGEN_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}

	// MQTT
	if v := os.Getenv("IRGEN_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("IRGEN_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("IRGEN_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("IRGEN_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("IRGEN_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("IRGEN_API_HOST"); v != "" {
		cfg.API.Host = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	switch c.Generator.Format {
	case FormatOMOTE, FormatYAML, FormatJSON:
	default:
		errs = append(errs, fmt.Sprintf("generator.format must be omote, yaml or json (got %q)", c.Generator.Format))
	}
	if c.Generator.Workers < 0 {
		errs = append(errs, "generator.workers must not be negative")
	}

	if c.Source.FetchTimeout < 1 {
		errs = append(errs, "source.fetch_timeout must be at least 1 second")
	}

	if c.Catalog.Enabled && c.Catalog.Path == "" {
		errs = append(errs, "catalog.path is required when catalog is enabled")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetFetchTimeout returns the source fetch timeout as a Duration.
func (c *Config) GetFetchTimeout() time.Duration {
	return time.Duration(c.Source.FetchTimeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
