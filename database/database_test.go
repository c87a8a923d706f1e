package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsApplied(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"user", "token", "survey", "question", "response_option", "survey_response", "response", "response_select"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestMigrateTwice(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, migrateDB(db))

	var version int
	var dirty bool
	require.NoError(t, db.QueryRow(`SELECT version, dirty FROM `+migrationsTable).Scan(&version, &dirty))
	assert.Equal(t, 1, version)
	assert.False(t, dirty)
}

func TestForeignKeysDetachQuestions(t *testing.T) {
	db := openTestDB(t)

	res, err := db.Exec(`INSERT INTO survey (title, start_date, end_date) VALUES ('s', 1, 2)`)
	require.NoError(t, err)
	surveyID, _ := res.LastInsertId()
	_, err = db.Exec(`INSERT INTO question (survey_id, title) VALUES (?, 'q')`, surveyID)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM survey WHERE id = ?`, surveyID)
	require.NoError(t, err)

	var owner sql.NullInt64
	require.NoError(t, db.QueryRow(`SELECT survey_id FROM question`).Scan(&owner))
	assert.False(t, owner.Valid)
}

func TestQuestionTypeConstraint(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO question (title, type) VALUES ('q', 'radio')`)
	assert.Error(t, err)
}

func TestWithTxRollsBack(t *testing.T) {
	db := openTestDB(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO survey (title, start_date, end_date) VALUES ('s', 1, 2)`)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM survey`).Scan(&n))
	assert.Zero(t, n)
}

func TestWithTxCommits(t *testing.T) {
	db := openTestDB(t)

	err := WithTx(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO survey (title, start_date, end_date) VALUES ('s', 1, 2)`)
		return err
	})
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM survey`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestEnsureAdmin(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureAdmin(ctx, db, "root", "first"))
	require.NoError(t, EnsureAdmin(ctx, db, "root", "second"))

	var hash []byte
	var staff bool
	require.NoError(t, db.QueryRow(`SELECT password_hash, is_staff FROM user WHERE username = 'root'`).Scan(&hash, &staff))
	assert.True(t, staff)
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("second")))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM user`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestAuthenticate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, EnsureAdmin(ctx, db, "root", "pass"))
	_, err := db.Exec(`INSERT INTO user (username, password_hash, is_staff) VALUES ('guest', x'00', 0)`)
	require.NoError(t, err)

	assert.NoError(t, Authenticate(ctx, db, "root", "pass"))
	assert.ErrorIs(t, Authenticate(ctx, db, "root", "wrong"), ErrBadCredentials)
	assert.ErrorIs(t, Authenticate(ctx, db, "nobody", "pass"), ErrBadCredentials)

	staff, err := IsStaff(ctx, db, "root")
	require.NoError(t, err)
	assert.True(t, staff)
	staff, err = IsStaff(ctx, db, "guest")
	require.NoError(t, err)
	assert.False(t, staff)
}

func TestRefreshGrantIsSingleUse(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now()
	grant := RefreshGrant{Username: "root", TokenID: "t1", RefreshTokenID: "r1"}

	require.NoError(t, StoreRefreshGrant(ctx, db, grant, now.Add(time.Hour)))
	assert.NoError(t, ConsumeRefreshGrant(ctx, db, grant, now))
	assert.ErrorIs(t, ConsumeRefreshGrant(ctx, db, grant, now), ErrBadCredentials)

	other := RefreshGrant{Username: "root", TokenID: "t2", RefreshTokenID: "r2"}
	require.NoError(t, StoreRefreshGrant(ctx, db, other, now.Add(time.Hour)))
	assert.ErrorIs(t, ConsumeRefreshGrant(ctx, db, RefreshGrant{Username: "root", TokenID: "t2", RefreshTokenID: "x"}, now), ErrBadCredentials)
	assert.ErrorIs(t, ConsumeRefreshGrant(ctx, db, other, now.Add(2*time.Hour)), ErrBadCredentials)
}

func TestFileDSN(t *testing.T) {
	assert.Equal(t, "file:survey.sqlite?_busy_timeout=5000&_foreign_keys=on", fileDSN("survey.sqlite"))
	assert.Equal(t, "file:x.db?mode=rwc&_busy_timeout=5000&_foreign_keys=on", fileDSN("file:x.db?mode=rwc"))
}
