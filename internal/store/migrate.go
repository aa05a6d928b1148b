package store

import (
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/Xstatic72/alphasis/internal/store/migrations"
)

// Migrate applies all pending schema migrations from the embedded FS.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}
