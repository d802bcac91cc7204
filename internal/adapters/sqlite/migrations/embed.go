package migrations

import "embed"

// FS contains embedded SQLite migrations for forageable storage.
//
//go:embed *.sql
var FS embed.FS
