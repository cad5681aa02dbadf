// Package database provides SQLite connectivity for the irgen command
// catalog.
//
// It opens the catalog file with WAL mode and a busy timeout, and runs
// versioned schema migrations read from any fs.FS (the binary embeds them
// from the top-level migrations package).
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Catalog.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: each version has an .up.sql and a .down.sql,
// and new columns must be NULLABLE or carry a DEFAULT.
package database
