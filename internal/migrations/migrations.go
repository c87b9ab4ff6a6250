package migrations

import (
	_ "embed"
)

//go:embed 001_initial_schema.sql
var initialSchema string

// InitialSchema returns the SQL statements that create the conversation
// store tables and indexes. The schema is embedded so a deployed binary
// never depends on migration files being present on disk.
func InitialSchema() string {
	return initialSchema
}
