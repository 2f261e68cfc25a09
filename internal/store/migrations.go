package store

import (
	"embed"
)

// sqlMigrations embeds the job-history/image-registry/system-config schema.
//
//go:embed migrations/*.sql
var sqlMigrations embed.FS
