package database

import (
	"database/sql"
	"net/url"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/artdubrouski/survey/config"
)

// Open connects to the SQLite file named in the configuration and brings its
// schema up to date.
func Open(cfg config.Config) (db *sql.DB, err error) {
	db, err = sql.Open("sqlite3", fileDSN(cfg.DBUrl))
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate db")
	}
	return db, nil
}

// OpenMemory returns a migrated private in-memory database. The pool is
// pinned to a single connection, since every connection to ":memory:" would
// otherwise see its own empty database.
func OpenMemory() (db *sql.DB, err error) {
	db, err = sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate db")
	}
	return db, nil
}

// foreign keys are a per-connection setting in SQLite, so they go in the DSN
// where the driver applies them to every new connection
func fileDSN(path string) string {
	params := url.Values{
		"_foreign_keys": {"on"},
		"_busy_timeout": {"5000"},
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + params.Encode()
	}
	return "file:" + path + "?" + params.Encode()
}
