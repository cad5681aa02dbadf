package database

import (
	"context"
	"testing"
	"testing/fstest"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20261001_120000_widgets.up.sql":   {Data: []byte("CREATE TABLE widgets (id TEXT PRIMARY KEY);")},
		"20261001_120000_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
		"20261002_080000_gadgets.up.sql":   {Data: []byte("CREATE TABLE gadgets (id TEXT PRIMARY KEY);")},
		"20261002_080000_gadgets.down.sql": {Data: []byte("DROP TABLE gadgets;")},
		"20261003_080000_orphan.down.sql":  {Data: []byte("DROP TABLE nothing;")},
		"README.md":                        {Data: []byte("ignored")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	if err != nil {
		t.Fatal(err)
	}
	return n == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := testMigrations()

	if err := db.Migrate(ctx, fsys); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "widgets") || !tableExists(t, db, "gadgets") {
		t.Fatal("migrations did not create tables")
	}

	applied, pending, err := db.MigrationStatus(ctx, fsys)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("applied=%d pending=%d, want 2/0", len(applied), len(pending))
	}
	if applied[0].AppliedAt.IsZero() {
		t.Error("AppliedAt not recorded")
	}

	// Idempotent.
	if err := db.Migrate(ctx, fsys); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrate_FailureRollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := testMigrations()
	fsys["20261004_000000_broken.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE ((")}

	if err := db.Migrate(ctx, fsys); err == nil {
		t.Fatal("Migrate() expected error for broken migration")
	}

	applied, pending, err := db.MigrationStatus(ctx, fsys)
	if err != nil {
		t.Fatal(err)
	}
	if len(applied) != 2 || len(pending) != 1 {
		t.Errorf("applied=%d pending=%d, want 2/1", len(applied), len(pending))
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	fsys := testMigrations()

	if err := db.Migrate(ctx, fsys); err != nil {
		t.Fatal(err)
	}
	if err := db.MigrateDown(ctx, fsys); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if tableExists(t, db, "gadgets") {
		t.Error("latest migration was not rolled back")
	}
	if !tableExists(t, db, "widgets") {
		t.Error("earlier migration was rolled back")
	}

	if err := db.MigrateDown(ctx, fsys); err != nil {
		t.Fatal(err)
	}
	if err := db.MigrateDown(ctx, fsys); err != nil {
		t.Errorf("MigrateDown() with nothing applied error = %v", err)
	}
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := LoadMigrations(testMigrations())
	if err != nil {
		t.Fatalf("LoadMigrations() error = %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("LoadMigrations() = %d migrations, want 2 (orphan down dropped)", len(migrations))
	}
	if migrations[0].Version != "20261001_120000" || migrations[0].Name != "widgets" {
		t.Errorf("first migration = %s/%s", migrations[0].Version, migrations[0].Name)
	}
	if migrations[1].DownSQL == "" {
		t.Error("down SQL not attached")
	}

	if m, err := LoadMigrations(nil); err != nil || m != nil {
		t.Errorf("LoadMigrations(nil) = %v, %v", m, err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename string
		version  string
		name     string
		up       bool
		ok       bool
	}{
		{"20261014_090000_catalog.up.sql", "20261014_090000", "catalog", true, true},
		{"20261014_090000_catalog.down.sql", "20261014_090000", "catalog", false, true},
		{"20261014_090000_two_words.up.sql", "20261014_090000", "two_words", true, true},
		{"20261014_090000.up.sql", "20261014_090000", "20261014_090000", true, true},
		{"catalog.up.sql", "", "", false, false},
		{"20261014_090000_catalog.sql", "", "", false, false},
		{"20261014_090000_catalog.up.txt", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, up, ok := parseMigrationFilename(tt.filename)
			if ok != tt.ok || version != tt.version || name != tt.name || up != tt.up {
				t.Errorf("parseMigrationFilename() = %q, %q, %v, %v; want %q, %q, %v, %v",
					version, name, up, ok, tt.version, tt.name, tt.up, tt.ok)
			}
		})
	}
}
