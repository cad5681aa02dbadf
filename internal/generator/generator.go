package generator

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/omote-irgen/internal/infrastructure/logging"
	"github.com/nerrad567/omote-irgen/internal/ir"
)

// Observer receives one call per encoded record. outcome is "ok" or an
// ir.ErrorCode value. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveEncode(protocol, outcome string, elapsed time.Duration)
}

// Options configures a Generator.
type Options struct {
	// Workers bounds parallel encoding. 0 means GOMAXPROCS.
	Workers int

	// FailFast aborts the batch on the first failing record.
	FailFast bool

	// Logger receives a warning per skipped record. Nil discards.
	Logger *logging.Logger

	// Observer is notified of every encode. Nil disables.
	Observer Observer
}

// Entry is one successfully encoded command.
type Entry struct {
	// Index is the record's position in the input.
	Index int

	// Label is the record name as it appeared in the source.
	Label string

	// Var is the unique C identifier for the command handle.
	Var string

	Code ir.Code
}

// Skip is a record left out of the output.
type Skip struct {
	Index    int
	Name     string
	Protocol string

	// Reason is the ir.ErrorCode of Err.
	Reason string
	Err    error
}

// Result is the outcome of one batch.
type Result struct {
	Device   string
	Entries  []Entry
	Skipped  []Skip
	Duration time.Duration
}

// Generator runs batches. It holds no per-batch state and is safe for
// concurrent use.
type Generator struct {
	enc      *ir.Encoder
	workers  int
	failFast bool
	log      *logging.Logger
	obs      Observer
}

// New creates a Generator around enc.
func New(enc *ir.Encoder, opts Options) *Generator {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Generator{
		enc:      enc,
		workers:  workers,
		failFast: opts.FailFast,
		log:      log.With("component", "generator"),
		obs:      opts.Observer,
	}
}

type outcome struct {
	code ir.Code
	err  error
}

// Run encodes records for device.
//
// Parameters:
//   - ctx: Cancels the batch; checked between records
//   - device: Device name carried into the Result
//   - records: Records in source order
//
// Returns:
//   - *Result: Entries and skips in input order
//   - error: *RecordError when FailFast is set and a record fails,
//     ErrNoCommands when nothing encoded, or the context error
func (g *Generator) Run(ctx context.Context, device string, records []ir.Record) (*Result, error) {
	start := time.Now()
	results := make([]outcome, len(records))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	for i := range records {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			code, err := g.encode(records[i])
			results[i] = outcome{code: code, err: err}
			if err != nil && g.failFast {
				return &RecordError{Index: i, Name: records[i].Name, Err: err}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Device: device}
	names := newNamer()
	for i, o := range results {
		r := records[i]
		if o.err != nil {
			reason := ir.ErrorCode(o.err)
			res.Skipped = append(res.Skipped, Skip{
				Index:    i,
				Name:     r.Name,
				Protocol: r.Protocol,
				Reason:   reason,
				Err:      o.err,
			})
			g.log.Warn("skipping record",
				"device", device,
				"index", i,
				"name", r.Name,
				"protocol", r.Protocol,
				"reason", reason,
				"error", o.err,
			)
			continue
		}
		res.Entries = append(res.Entries, Entry{
			Index: i,
			Label: labelOf(r),
			Var:   names.unique(MakeVar(labelOf(r))),
			Code:  o.code,
		})
	}
	res.Duration = time.Since(start)

	if len(res.Entries) == 0 {
		return res, ErrNoCommands
	}

	g.log.Info("batch encoded",
		"device", device,
		"generated", len(res.Entries),
		"skipped", len(res.Skipped),
		"duration", res.Duration,
	)
	return res, nil
}

func (g *Generator) encode(r ir.Record) (ir.Code, error) {
	start := time.Now()
	code, err := g.enc.Encode(r, "")
	if g.obs != nil {
		protocol := code.Descriptor.Key
		outcome := "ok"
		if err != nil {
			protocol = protocolLabel(r.Protocol)
			outcome = ir.ErrorCode(err)
		}
		g.obs.ObserveEncode(protocol, outcome, time.Since(start))
	}
	return code, err
}

// protocolLabel bounds the label set for failed records: registered keys
// are reported normalised, anything else as "UNKNOWN".
func protocolLabel(key string) string {
	if d, err := ir.Lookup(key); err == nil {
		return d.Key
	}
	return ir.ProtocolUnknown.String()
}

func labelOf(r ir.Record) string {
	if r.Name == "" {
		return "KEY"
	}
	return r.Name
}
