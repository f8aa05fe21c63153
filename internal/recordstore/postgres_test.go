package recordstore

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresMock(t *testing.T) (*Postgres, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgres(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func TestPostgresListDecodesPayload(t *testing.T) {
	store, mock, cleanup := newPostgresMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "payload"}).
		AddRow(int64(1), []byte(`{"status_c":"present","session_id_c":3}`)).
		AddRow(int64(2), []byte(`{"status":"absent","sessionId":3}`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, payload FROM records WHERE entity = $1 ORDER BY id")).
		WithArgs(EntityAttendance).
		WillReturnRows(rows)

	records, err := store.List(context.Background(), EntityAttendance)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0]["Id"])
	assert.Equal(t, "present", records[0]["status_c"])
	assert.Equal(t, 2, records[1]["Id"])
	assert.Equal(t, "absent", records[1]["status"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetNotFound(t *testing.T) {
	store, mock, cleanup := newPostgresMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM records WHERE entity = $1 AND id = $2")).
		WithArgs(EntityAttendance, 42).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	_, err := store.Get(context.Background(), EntityAttendance, 42)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateAndUpdate(t *testing.T) {
	store, mock, cleanup := newPostgresMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records (entity, id, payload) VALUES ($1, $2, $3)")).
		WithArgs(EntityAttendance, 5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Create(context.Background(), EntityAttendance, 5, RawRecord{"status_c": "late"}))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE records SET payload = payload || $3 WHERE entity = $1 AND id = $2")).
		WithArgs(EntityAttendance, 5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Update(context.Background(), EntityAttendance, 5, RawRecord{"status_c": "excused"}))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE records SET payload = payload || $3 WHERE entity = $1 AND id = $2")).
		WithArgs(EntityAttendance, 6, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, store.Update(context.Background(), EntityAttendance, 6, RawRecord{"status_c": "late"}), ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteReportsRemoval(t *testing.T) {
	store, mock, cleanup := newPostgresMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records WHERE entity = $1 AND id = $2")).
		WithArgs(EntityAttendance, 9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	removed, err := store.Delete(context.Background(), EntityAttendance, 9)
	require.NoError(t, err)
	assert.True(t, removed)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records WHERE entity = $1 AND id = $2")).
		WithArgs(EntityAttendance, 9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	removed, err = store.Delete(context.Background(), EntityAttendance, 9)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMaxID(t *testing.T) {
	store, mock, cleanup := newPostgresMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(id), 0) FROM records WHERE entity = $1")).
		WithArgs(EntityAttendance).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(11))

	max, err := store.MaxID(context.Background(), EntityAttendance)
	require.NoError(t, err)
	assert.Equal(t, 11, max)
	require.NoError(t, mock.ExpectationsWereMet())
}
