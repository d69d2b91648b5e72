package sqldb_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/shipq/queries"
	"github.com/shipq/queries/sqldb"
)

func openSQLite(t *testing.T) *sqldb.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return sqldb.New(db, "sqlite")
}

func TestSQLiteScenarios(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	t.Run("single", func(t *testing.T) {
		rows, err := db.Query(ctx, "SELECT 1")
		require.NoError(t, err)
		n, err := queries.Single(ctx, rows, queries.Decode[int32])
		require.NoError(t, err)
		assert.Equal(t, int32(1), n)
	})

	t.Run("list", func(t *testing.T) {
		rows, err := db.Query(ctx, "SELECT 1 UNION SELECT 2 UNION SELECT 3")
		require.NoError(t, err)
		ns, err := queries.List(ctx, rows, queries.Decode[int32])
		require.NoError(t, err)
		assert.Equal(t, []int32{1, 2, 3}, ns)
	})

	t.Run("optional absent", func(t *testing.T) {
		rows, err := db.Query(ctx, "SELECT 1 WHERE ?", false)
		require.NoError(t, err)
		n, err := queries.Optional(ctx, rows, queries.Decode[int32])
		require.NoError(t, err)
		assert.Nil(t, n)
	})

	t.Run("optional present", func(t *testing.T) {
		rows, err := db.Query(ctx, "SELECT 1 WHERE ?", true)
		require.NoError(t, err)
		n, err := queries.Optional(ctx, rows, queries.Decode[int32])
		require.NoError(t, err)
		require.NotNil(t, n)
		assert.Equal(t, int32(1), *n)
	})

	t.Run("bound parameter", func(t *testing.T) {
		rows, err := db.Query(ctx, "SELECT ?", int32(12))
		require.NoError(t, err)
		n, err := queries.Single(ctx, rows, queries.Decode[int32])
		require.NoError(t, err)
		assert.Equal(t, int32(12), n)
	})

	t.Run("stream", func(t *testing.T) {
		rows, err := db.Query(ctx, "SELECT 1 UNION SELECT 2 UNION SELECT 3")
		require.NoError(t, err)
		var got []int32
		for n, err := range queries.Stream(ctx, rows, queries.Decode[int32], nil) {
			require.NoError(t, err)
			got = append(got, n)
		}
		assert.Equal(t, []int32{1, 2, 3}, got)
	})

	t.Run("syntax error surfaces from the executor", func(t *testing.T) {
		_, err := db.Query(ctx, "SELEC 1")
		assert.Error(t, err)
	})
}

func TestSQLiteTransaction(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	_, err := db.Unwrap().Exec("CREATE TABLE kv (k TEXT PRIMARY KEY, v INTEGER NOT NULL)")
	require.NoError(t, err)

	count := func() int64 {
		rows, err := db.Query(ctx, "SELECT count(*) FROM kv")
		require.NoError(t, err)
		n, err := queries.Single(ctx, rows, queries.Decode[int64])
		require.NoError(t, err)
		return n
	}

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	rows, err := tx.Query(ctx, "INSERT INTO kv (k, v) VALUES (?, ?)", "a", 1)
	require.NoError(t, err)
	require.NoError(t, queries.Exec(ctx, rows))
	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, int64(0), count())

	tx, err = db.Begin(ctx)
	require.NoError(t, err)
	rows, err = tx.Query(ctx, "INSERT INTO kv (k, v) VALUES (?, ?)", "b", 2)
	require.NoError(t, err)
	require.NoError(t, queries.Exec(ctx, rows))
	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, int64(1), count())
}

func TestPositionalBinding(t *testing.T) {
	ctx := context.Background()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	const q = "SELECT name FROM pets WHERE owner = ? AND kind = ?"
	mock.ExpectQuery(regexp.QuoteMeta(q)).
		WithArgs(int64(7), "cat").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Tom").AddRow("Felix"))

	db := sqldb.New(mockDB, "mysql")
	rows, err := db.Query(ctx, q, int64(7), "cat")
	require.NoError(t, err)
	names, err := queries.List(ctx, rows, queries.Decode[string])
	require.NoError(t, err)
	assert.Equal(t, []string{"Tom", "Felix"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxAgainstMock(t *testing.T) {
	ctx := context.Background()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE pets").WithArgs("Rex", int64(1)).WillReturnRows(sqlmock.NewRows(nil))
	mock.ExpectCommit()

	db := sqldb.New(mockDB, "postgres", sqldb.WithTxOptions(&sql.TxOptions{Isolation: sql.LevelDefault}))
	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "postgres", tx.(queries.DialectProvider).Dialect())

	rows, err := tx.Query(ctx, "UPDATE pets SET name = $1 WHERE id = $2", "Rex", int64(1))
	require.NoError(t, err)
	require.NoError(t, queries.Exec(ctx, rows))
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	boom := errors.New("too many connections")
	mock.ExpectBegin().WillReturnError(boom)

	_, err = sqldb.New(mockDB, "mysql").Begin(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestDialect(t *testing.T) {
	db := sqldb.New(nil, "mysql")
	assert.Equal(t, "mysql", db.Dialect())
	assert.Panics(t, func() { queries.MustMatchDialect(db, "sqlite") })
}
