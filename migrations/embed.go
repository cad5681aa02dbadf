// Package migrations embeds the catalog schema into the binary.
package migrations

import "embed"

// FS holds the *.sql migration files at its root, for database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
