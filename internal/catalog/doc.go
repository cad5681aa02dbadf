// Package catalog persists generation runs in SQLite.
//
// Every run that produces output is recorded with the commands it
// encoded and the records it skipped, so a device's current code table
// can be listed, served over the API or diffed against a later run
// without re-fetching the source.
//
// Schema: migrations/*.sql, applied by Open through database.Migrate.
package catalog
