package sqlstore_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jrsteele09/go-botlist-server/bots"
	"github.com/jrsteele09/go-botlist-server/sessions"
	"github.com/jrsteele09/go-botlist-server/sessions/sqlstore"
	"github.com/jrsteele09/go-botlist-server/users"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T, driver string) (*sqlstore.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return sqlstore.New(db, driver), mock
}

func TestCreateUserAndSessionRollsBackOnInsertFailure(t *testing.T) {
	s, mock := newMockStore(t, sqlstore.DriverSQLite)
	insertErr := errors.New("UNIQUE constraint failed: sessions.access_token_hash")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).WillReturnError(insertErr)
	mock.ExpectRollback()

	_, err := s.CreateUserAndSession(context.Background(), &users.User{ID: "1", Username: "u"}, "a", "r")
	var storeErr *sessions.StoreError
	require.ErrorAs(t, err, &storeErr)
	require.ErrorIs(t, err, insertErr)
}

func TestCreateUserAndSessionRequiresUserID(t *testing.T) {
	s, _ := newMockStore(t, sqlstore.DriverSQLite)
	_, err := s.CreateUserAndSession(context.Background(), &users.User{}, "a", "r")
	var storeErr *sessions.StoreError
	require.ErrorAs(t, err, &storeErr)
}

func TestReplaceSessionHashesNoRowsRollsBack(t *testing.T) {
	s, mock := newMockStore(t, sqlstore.DriverSQLite)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions")).
		WithArgs("new-a", "new-r", sqlmock.AnyArg(), "old-r").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.ReplaceSessionHashes(context.Background(), "old-r", "new-a", "new-r", &users.User{ID: "1"})
	require.ErrorIs(t, err, sessions.ErrSessionNotFound)
}

func TestReplaceSessionHashesCommitsWithProfile(t *testing.T) {
	s, mock := newMockStore(t, sqlstore.DriverSQLite)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.ReplaceSessionHashes(context.Background(), "old-r", "new-a", "new-r", &users.User{ID: "1"}))
}

func TestPostgresPlaceholders(t *testing.T) {
	s, mock := newMockStore(t, sqlstore.DriverPostgres)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE access_token_hash = $1")).
		WithArgs("hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.DeleteSessionByAccessTokenHash(context.Background(), "hash"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bots SET api_key = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("h", sqlmock.AnyArg(), "bot-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, s.SetAPIKeyHash(context.Background(), "bot-1", "h"), bots.ErrBotNotFound)
}

func TestListSessionsQueryFailure(t *testing.T) {
	s, mock := newMockStore(t, sqlstore.DriverSQLite)
	queryErr := errors.New("database is locked")

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions")).WithArgs("1").WillReturnError(queryErr)

	_, err := s.ListSessionsForUser(context.Background(), "1")
	require.ErrorIs(t, err, queryErr)
	require.NotErrorIs(t, err, sessions.ErrNoSessionsFound)
}
