package database

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"

	"github.com/artdubrouski/survey/log"
)

//go:embed migrations
var schemaMigrations embed.FS

const migrationsTable = "schema_migrations"

// migrateDB applies every embedded migration not yet recorded in db. The
// migrator is not closed, since that would close db as well.
func migrateDB(db *sql.DB) error {
	src, err := iofs.New(schemaMigrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "migration source")
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return errors.Wrap(err, "migration target")
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return errors.Wrap(err, "migrator")
	}

	err = migrator.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Debug("db.migrate: schema up to date")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "migrate up")
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return errors.Wrap(err, "schema version")
	}
	log.WithFields(log.Fields{"version": version, "dirty": dirty}).Info("db.migrate: schema migrated")
	return nil
}
