package db

import "embed"

// MigrationFS embeds the SQL migrations so cmd/migrate ships them inside the
// binary instead of depending on a files-on-disk layout.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
