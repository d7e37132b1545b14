// Package migrations встраивает SQL миграции в бинарник
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql
var content embed.FS

// Postgres возвращает FS с миграциями PostgreSQL в корне
func Postgres() fs.FS {
	sub, err := fs.Sub(content, "postgres")
	if err != nil {
		panic("failed to open embedded migrations: " + err.Error())
	}
	return sub
}
