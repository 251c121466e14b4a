// Package migrations embeds the schema files applied by database.MigrationExecutor.
package migrations

import "embed"

// Files holds every NNN_name.up.sql and .down.sql file of this directory.
//
//go:embed *.sql
var Files embed.FS
