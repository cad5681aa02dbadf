// irgen converts IR remote descriptions into OMOTE device code.
//
// It reads a Flipper Zero .ir file, a CSV export or a YAML/JSON command
// list (local path or URL), encodes every command and writes either the
// C++ device_<name>.h/.cpp pair the OMOTE firmware compiles, or the
// YAML/JSON remote config its parser loads:
//
//	irgen --input Sony_TV.ir --device-name tv --out-dir src/devices
//
// The same encoder is served over HTTP with --serve.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/nerrad567/omote-irgen/internal/api"
	"github.com/nerrad567/omote-irgen/internal/catalog"
	"github.com/nerrad567/omote-irgen/internal/emit"
	"github.com/nerrad567/omote-irgen/internal/generator"
	"github.com/nerrad567/omote-irgen/internal/infrastructure/config"
	"github.com/nerrad567/omote-irgen/internal/infrastructure/database"
	"github.com/nerrad567/omote-irgen/internal/infrastructure/influxdb"
	"github.com/nerrad567/omote-irgen/internal/infrastructure/logging"
	"github.com/nerrad567/omote-irgen/internal/infrastructure/mqtt"
	"github.com/nerrad567/omote-irgen/internal/ir"
	"github.com/nerrad567/omote-irgen/internal/metrics"
	"github.com/nerrad567/omote-irgen/internal/source"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// stdoutDir as --out-dir streams the rendered files to stdout.
const stdoutDir = "-"

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError marks errors caused by the command line.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(exitOK)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var ue usageError
	if errors.As(err, &ue) {
		return exitUsage
	}
	return exitFailure
}

// options holds the parsed command line.
type options struct {
	input      string
	deviceName string
	outDir     string
	format     string
	configPath string
	workers    int
	rawProto   string
	logLevel   string
	strict     bool
	failFast   bool
	necLSB     bool
	publish    bool
	catalog    string
	metrics    string
	serve      string
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, *pflag.FlagSet, error) {
	o := &options{}
	fs := pflag.NewFlagSet("irgen", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false

	fs.StringVarP(&o.input, "input", "i", "", "source file path or URL (.ir, .csv, .yaml, .json)")
	fs.StringVarP(&o.deviceName, "device-name", "d", "", "device name (default: name declared by the source, then the file name)")
	fs.StringVarP(&o.outDir, "out-dir", "o", "", `output directory, "-" for stdout`)
	fs.StringVarP(&o.format, "format", "f", "", "output format: omote, yaml or json")
	fs.StringVarP(&o.configPath, "config", "c", "", "config file (default: $IRGEN_CONFIG)")
	fs.IntVar(&o.workers, "workers", 0, "parallel encoders (0 = one per CPU)")
	fs.StringVar(&o.rawProto, "raw-protocol", "", "protocol assumed for raw-timing records")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&o.strict, "strict", false, "reject out-of-range fields instead of masking")
	fs.BoolVar(&o.failFast, "fail-fast", false, "abort on the first record that fails to encode")
	fs.BoolVar(&o.necLSB, "nec-lsb-first", false, "emit NEC-family codes as the LSB-first wire word")
	fs.BoolVar(&o.publish, "publish", false, "publish every code to MQTT")
	fs.StringVar(&o.catalog, "catalog", "", "record the run in this SQLite catalog")
	fs.StringVar(&o.metrics, "metrics-file", "", "write Prometheus metrics to this textfile")
	fs.StringVar(&o.serve, "serve", "", "serve the HTTP API on host:port instead of generating")
	fs.BoolVar(&o.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, usageError{err}
	}
	if fs.NArg() > 0 {
		return nil, nil, usageError{fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))}
	}
	return o, fs, nil
}

// loadConfig reads the config file, if any, and applies the flags that
// were set on the command line.
func loadConfig(o *options, fs *pflag.FlagSet) (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv("IRGEN_CONFIG")
	}

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}

	if fs.Changed("out-dir") {
		cfg.Generator.OutDir = o.outDir
	}
	if fs.Changed("format") {
		cfg.Generator.Format = strings.ToLower(o.format)
	}
	if fs.Changed("workers") {
		cfg.Generator.Workers = o.workers
	}
	if fs.Changed("raw-protocol") {
		cfg.Generator.RawProtocol = o.rawProto
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if o.strict {
		cfg.Generator.Strict = true
	}
	if o.failFast {
		cfg.Generator.FailFast = true
	}
	if o.necLSB {
		cfg.Generator.NECLSBFirst = true
	}
	if o.publish {
		cfg.MQTT.Enabled = true
	}
	if o.catalog != "" {
		cfg.Catalog.Enabled = true
		cfg.Catalog.Path = o.catalog
	}
	if o.metrics != "" {
		cfg.Metrics.Textfile = o.metrics
	}

	if err := cfg.Validate(); err != nil {
		return nil, usageError{err}
	}
	return cfg, nil
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line without the program name
//   - stdout: Receives the run summary, or the files for --out-dir -
//   - stderr: Receives logs and flag errors
//
// Returns:
//   - error: nil on success; usageError for command line problems
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, fs, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintf(stdout, "irgen %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}
	if o.input == "" && o.serve == "" {
		fs.Usage()
		return usageError{errors.New("--input or --serve is required")}
	}

	cfg, err := loadConfig(o, fs)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.NewWriter(cfg.Logging, version, stderr)
	m := metrics.New(o.serve != "")

	var repo *catalog.SQLiteRepository
	if cfg.Catalog.Enabled {
		repo, err = catalog.Open(ctx, database.Config{
			Path:        cfg.Catalog.Path,
			WALMode:     cfg.Catalog.WALMode,
			BusyTimeout: cfg.Catalog.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer func() {
			if closeErr := repo.Close(); closeErr != nil {
				log.Error("error closing catalog", "error", closeErr)
			}
		}()
		log.Debug("catalog opened", "path", cfg.Catalog.Path)
	}

	if o.serve != "" {
		return serve(ctx, o.serve, cfg, log, repo, m)
	}
	return generate(ctx, o, cfg, log, repo, m, stdout)
}

// serve runs the HTTP API until ctx is cancelled.
func serve(ctx context.Context, addr string, cfg *config.Config, log *logging.Logger, repo *catalog.SQLiteRepository, m *metrics.Metrics) error {
	host, portText, err := net.SplitHostPort(addr)
	if err != nil {
		return usageError{fmt.Errorf("--serve %q: %w", addr, err)}
	}
	port, err := strconv.Atoi(portText)
	if err != nil || port < 0 || port > 65535 {
		return usageError{fmt.Errorf("--serve %q: invalid port", addr)}
	}
	apiCfg := cfg.API
	apiCfg.Host = host
	apiCfg.Port = port

	deps := api.Deps{
		Config:    apiCfg,
		Generator: cfg.Generator,
		Logger:    log,
		Metrics:   m,
		Version:   version,
	}
	if repo != nil {
		deps.Catalog = repo
	}

	srv, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	<-ctx.Done()
	log.Info("shutdown signal received")
	return srv.Close()
}

// generate runs one fetch, encode and emit pass, then feeds the optional
// sinks.
func generate(ctx context.Context, o *options, cfg *config.Config, log *logging.Logger, repo *catalog.SQLiteRepository, m *metrics.Metrics, stdout io.Writer) error {
	fetcher := source.NewFetcher(cfg.GetFetchTimeout(), cfg.Source.UserAgent)
	data, err := fetcher.Fetch(ctx, o.input)
	if err != nil {
		return err
	}

	doc, err := source.Parse(data, o.input)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", o.input, err)
	}

	device := o.deviceName
	if device == "" {
		device = doc.Name
	}
	if device == "" {
		device = source.BaseName(o.input)
	}
	log = log.With("device", device)
	log.Info("source parsed", "input", o.input, "format", doc.Format, "records", len(doc.Records))

	policy := ir.PolicyMask
	if cfg.Generator.Strict {
		policy = ir.PolicyStrict
	}
	enc, err := ir.NewEncoder(ir.Options{Policy: policy, RawProtocol: cfg.Generator.RawProtocol})
	if err != nil {
		return usageError{err}
	}

	gen := generator.New(enc, generator.Options{
		Workers:  cfg.Generator.Workers,
		FailFast: cfg.Generator.FailFast,
		Logger:   log,
		Observer: m,
	})

	res, err := gen.Run(ctx, device, doc.Records)
	if err != nil {
		outcome := metrics.RunFailed
		skipped := 0
		if errors.Is(err, generator.ErrNoCommands) {
			outcome = metrics.RunEmpty
			skipped = len(res.Skipped)
		}
		m.ObserveRun(device, outcome, 0, skipped, time.Now())
		writeMetrics(cfg, m, log)
		return err
	}

	opts := emit.Options{NECLSBFirst: cfg.Generator.NECLSBFirst, Generator: "irgen " + version}
	files, err := emit.Render(cfg.Generator.Format, res, opts)
	if err != nil {
		return err
	}

	if cfg.Generator.OutDir == stdoutDir {
		for _, f := range files {
			if _, err := stdout.Write(f.Data); err != nil {
				return fmt.Errorf("writing %s: %w", f.Name, err)
			}
		}
	} else {
		if err := emit.WriteFiles(cfg.Generator.OutDir, files); err != nil {
			return err
		}
		for _, f := range files {
			log.Info("file written", "path", filepath.Join(cfg.Generator.OutDir, f.Name))
		}
	}

	var sinkErrs []error
	if repo != nil {
		entry := catalog.FromResult(res, o.input, cfg.Generator.Format)
		if err := repo.SaveRun(ctx, &entry); err != nil {
			sinkErrs = append(sinkErrs, fmt.Errorf("saving run: %w", err))
		} else {
			log.Info("run recorded", "run_id", entry.Run.ID)
		}
	}
	if cfg.MQTT.Enabled {
		if err := publish(cfg.MQTT, res, opts, log); err != nil {
			sinkErrs = append(sinkErrs, err)
		}
	}
	if cfg.InfluxDB.Enabled {
		if err := writeTelemetry(cfg.InfluxDB, res, cfg.Generator.Format, log); err != nil {
			sinkErrs = append(sinkErrs, err)
		}
	}

	m.ObserveRun(device, metrics.RunOK, len(res.Entries), len(res.Skipped), time.Now())
	writeMetrics(cfg, m, log)

	if cfg.Generator.OutDir != stdoutDir {
		fmt.Fprintf(stdout, "%s: %d commands generated, %d skipped (%s)\n",
			device, len(res.Entries), len(res.Skipped), cfg.Generator.Format)
	}
	return errors.Join(sinkErrs...)
}

// publish sends every code to MQTT, retained, for an IR-blaster bridge.
func publish(cfg config.MQTTConfig, res *generator.Result, opts emit.Options, log *logging.Logger) error {
	client, err := mqtt.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log)
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()

	var errs []error
	for _, e := range res.Entries {
		msg := mqtt.CodeMessage{
			Name:     e.Label,
			Protocol: emit.FirmwareProtocol(e.Code.Descriptor),
			Constant: e.Code.Descriptor.ConstantID,
			Hex:      emit.HexFor(e.Code, opts),
			Bits:     e.Code.Bits,
			Repeat:   e.Code.Repeat,
			Payload:  emit.PayloadFor(e.Code, opts),
		}
		if err := client.PublishCode(res.Device, e.Var, msg); err != nil {
			errs = append(errs, err)
		}
	}
	log.Info("codes published",
		"topic", client.Topics().DeviceCommands(res.Device),
		"published", len(res.Entries)-len(errs),
		"failed", len(errs),
	)
	if len(errs) > 0 {
		return fmt.Errorf("publishing codes: %w", errors.Join(errs...))
	}
	return nil
}

// writeTelemetry records the run in InfluxDB.
func writeTelemetry(cfg config.InfluxDBConfig, res *generator.Result, format string, log *logging.Logger) error {
	client, err := influxdb.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Warn("influxdb write error", "error", err)
	})
	client.WriteRun(influxdb.Run{
		Device:    res.Device,
		Format:    format,
		Generated: len(res.Entries),
		Skipped:   len(res.Skipped),
		Duration:  res.Duration,
		At:        time.Now(),
	})
	return client.Close()
}

func writeMetrics(cfg *config.Config, m *metrics.Metrics, log *logging.Logger) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.Warn("metrics export failed", "path", cfg.Metrics.Textfile, "error", err)
	}
}
