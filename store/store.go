// Package store persists surveys and submissions in SQLite. Every write runs
// in one transaction together with the validation reads it depends on.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/artdubrouski/survey/nested"
	"github.com/artdubrouski/survey/validate"
)

var ErrNotFound = errors.New("not found")

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock returns a copy of the store that reads the current time from now.
func (s *Store) WithClock(now func() time.Time) *Store {
	c := *s
	c.now = now
	return &c
}

// inClause returns "(?, ?, ...)" with one placeholder per id.
func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ") + ")", args
}

// maxInClause bounds the placeholders of one IN list, well below the number
// of variables SQLite binds per statement.
const maxInClause = 500

// inChunks calls fn with an IN clause for each run of at most maxInClause
// ids, in order.
func inChunks(ids []int64, fn func(in string, args []any) error) error {
	for len(ids) > 0 {
		n := min(len(ids), maxInClause)
		in, args := inClause(ids[:n])
		if err := fn(in, args); err != nil {
			return err
		}
		ids = ids[n:]
	}
	return nil
}

func nullableID(id sql.NullInt64) *int64 {
	if !id.Valid {
		return nil
	}
	v := id.Int64
	return &v
}

func rowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

// childError turns a reconciliation failure into a rejection naming the
// payload path that caused it.
func childError(err error, path string) error {
	var foreign *nested.ForeignChildError
	var dup *nested.DuplicateChildError
	switch {
	case errors.As(err, &foreign):
		return &validate.Error{
			Kind:    validate.Malformed,
			Message: fmt.Sprintf("%s: %d does not belong to the object being updated", path, foreign.ID),
		}
	case errors.As(err, &dup):
		return &validate.Error{
			Kind:    validate.Malformed,
			Message: fmt.Sprintf("%s: %d is listed more than once", path, dup.ID),
		}
	}
	return err
}

// withPath prefixes a rejection with the payload path it came from, leaving
// other errors untouched.
func withPath(err error, path string) error {
	var verr *validate.Error
	if errors.As(err, &verr) {
		return verr.At(path)
	}
	return err
}
