// Package migrations embeds the PostgreSQL schema migrations.
package migrations

import "embed"

// FS holds the numbered .sql migration files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
