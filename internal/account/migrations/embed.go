// Package migrations embeds the SQL migration files applied by goose on
// server startup.
package migrations

import "embed"

// FS holds the embedded .sql migration files.
//
//go:embed *.sql
var FS embed.FS
