package storage

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations is the embedded schema migration set, rooted at the directory
// containing the .sql files.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		// Unreachable: the subdirectory is embedded at compile time.
		panic(err)
	}
	return sub
}
