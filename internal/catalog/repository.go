package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/omote-irgen/internal/infrastructure/database"
	"github.com/nerrad567/omote-irgen/migrations"
)

// timeLayout is fixed-width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Repository defines catalog persistence operations.
type Repository interface {
	SaveRun(ctx context.Context, e *Entry) error
	LatestRun(ctx context.Context, device string) (*Run, error)
	ListRuns(ctx context.Context, device string, limit int) ([]Run, error)
	ListCommands(ctx context.Context, device string) ([]Command, error)
	ListRunCommands(ctx context.Context, runID string) ([]Command, error)
	ListSkipped(ctx context.Context, runID string) ([]SkippedRecord, error)
	ListDevices(ctx context.Context) ([]string, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository wraps an open, migrated database.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Open opens the catalog database and applies pending migrations.
//
// Parameters:
//   - ctx: Bounds opening and migration
//   - cfg: Database location and pragmas
//
// Returns:
//   - *SQLiteRepository: Ready catalog; Close releases it
//   - error: If the database cannot be opened or migrated
func Open(ctx context.Context, cfg database.Config) (*SQLiteRepository, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("migrating catalog: %w", err)
	}
	return NewSQLiteRepository(db), nil
}

// Close closes the underlying database.
func (r *SQLiteRepository) Close() error {
	if r == nil {
		return nil
	}
	return r.db.Close()
}

// HealthCheck checks the database connection.
func (r *SQLiteRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// SaveRun stores a run with its commands and skips in one transaction.
// An empty Run.ID is filled with a new UUID and a zero CreatedAt with
// the current time; both are written back to e.
func (r *SQLiteRepository) SaveRun(ctx context.Context, e *Entry) error {
	if e.Run.ID == "" {
		e.Run.ID = uuid.NewString()
	}
	if e.Run.CreatedAt.IsZero() {
		e.Run.CreatedAt = time.Now()
	}
	e.Run.CreatedAt = e.Run.CreatedAt.UTC().Truncate(time.Microsecond)

	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		const runQuery = `INSERT INTO generation_runs (id, device, source, format, generated, skipped, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`
		run := e.Run
		if _, err := tx.ExecContext(ctx, runQuery,
			run.ID, run.Device, run.Source, run.Format, run.Generated, run.Skipped,
			run.CreatedAt.Format(timeLayout)); err != nil {
			return fmt.Errorf("inserting run %s: %w", run.ID, err)
		}

		const cmdQuery = `INSERT INTO ir_commands (run_id, position, name, var_name, protocol, constant, hex, bits, repeat, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, c := range e.Commands {
			if _, err := tx.ExecContext(ctx, cmdQuery,
				run.ID, c.Position, c.Name, c.Var, c.Protocol, c.Constant, c.Hex, c.Bits, c.Repeat, c.Source); err != nil {
				return fmt.Errorf("inserting command %q: %w", c.Name, err)
			}
		}

		const skipQuery = `INSERT INTO skipped_records (run_id, name, protocol, reason) VALUES (?, ?, ?, ?)`
		for _, s := range e.Skipped {
			if _, err := tx.ExecContext(ctx, skipQuery, run.ID, s.Name, s.Protocol, s.Reason); err != nil {
				return fmt.Errorf("inserting skipped record %q: %w", s.Name, err)
			}
		}
		return nil
	})
}

const runColumns = `id, device, source, format, generated, skipped, created_at`

// LatestRun returns the most recent run for device.
func (r *SQLiteRepository) LatestRun(ctx context.Context, device string) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM generation_runs
		WHERE device = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`
	run, err := scanRun(r.db.QueryRowContext(ctx, query, device))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: device %q", ErrRunNotFound, device)
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest run for %q: %w", device, err)
	}
	return run, nil
}

// ListRuns returns up to limit runs for device, newest first. limit <= 0
// means no limit.
func (r *SQLiteRepository) ListRuns(ctx context.Context, device string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + runColumns + ` FROM generation_runs
		WHERE device = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, device, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs for %q: %w", device, err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ListCommands returns the commands of the latest run for device.
func (r *SQLiteRepository) ListCommands(ctx context.Context, device string) ([]Command, error) {
	run, err := r.LatestRun(ctx, device)
	if err != nil {
		return nil, err
	}
	return r.ListRunCommands(ctx, run.ID)
}

// ListRunCommands returns the commands of a run in source order.
func (r *SQLiteRepository) ListRunCommands(ctx context.Context, runID string) ([]Command, error) {
	const query = `SELECT position, name, var_name, protocol, constant, hex, bits, repeat, source
		FROM ir_commands WHERE run_id = ? ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("querying commands for run %s: %w", runID, err)
	}
	defer rows.Close()

	var cmds []Command
	for rows.Next() {
		var c Command
		if err := rows.Scan(&c.Position, &c.Name, &c.Var, &c.Protocol, &c.Constant, &c.Hex, &c.Bits, &c.Repeat, &c.Source); err != nil {
			return nil, fmt.Errorf("scanning command: %w", err)
		}
		cmds = append(cmds, c)
	}
	return cmds, rows.Err()
}

// ListSkipped returns the skipped records of a run.
func (r *SQLiteRepository) ListSkipped(ctx context.Context, runID string) ([]SkippedRecord, error) {
	const query = `SELECT name, protocol, reason FROM skipped_records WHERE run_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("querying skipped records for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []SkippedRecord
	for rows.Next() {
		var s SkippedRecord
		if err := rows.Scan(&s.Name, &s.Protocol, &s.Reason); err != nil {
			return nil, fmt.Errorf("scanning skipped record: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListDevices returns every device with at least one run, sorted.
func (r *SQLiteRepository) ListDevices(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT device FROM generation_runs ORDER BY device`)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run     Run
		created string
	)
	if err := s.Scan(&run.ID, &run.Device, &run.Source, &run.Format, &run.Generated, &run.Skipped, &created); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", created, err)
	}
	run.CreatedAt = t
	return &run, nil
}
