// Package migrations embeds the SQL migration files for the SQLite
// vector store.
package migrations

import "embed"

// FS holds every SQL migration file, embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
