package queries_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipq/queries"
)

// mockRows returns *sql.Rows positioned on their first row.
func mockRows(t *testing.T, rows *sqlmock.Rows) *sql.Rows {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("SELECT").WillReturnRows(rows)
	r, err := db.Query("SELECT")
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	require.True(t, r.Next())
	return r
}

type Timestamps struct {
	CreatedAt time.Time
}

type Pet struct {
	ID      int64  `db:"pet_id"`
	Name    string
	OwnerID int64
	Hidden  string `db:"-"`
	Timestamps
}

func TestDecodeStruct(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := mockRows(t, sqlmock.NewRows([]string{"pet_id", "NAME", "owner_id", "created_at"}).
		AddRow(int64(7), "Rex", int64(3), now))

	pet, err := queries.Decode[Pet](rows)
	require.NoError(t, err)
	assert.Equal(t, Pet{ID: 7, Name: "Rex", OwnerID: 3, Timestamps: Timestamps{CreatedAt: now}}, pet)
}

func TestDecodeStructSubsetOfColumns(t *testing.T) {
	rows := mockRows(t, sqlmock.NewRows([]string{"name"}).AddRow("Tom"))

	pet, err := queries.Decode[Pet](rows)
	require.NoError(t, err)
	assert.Equal(t, Pet{Name: "Tom"}, pet)
}

func TestDecodeStructUnknownColumn(t *testing.T) {
	rows := mockRows(t, sqlmock.NewRows([]string{"name", "species"}).AddRow("Tom", "cat"))

	_, err := queries.Decode[Pet](rows)
	var de *queries.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "species", de.Column)
}

func TestDecodeStructExcludedField(t *testing.T) {
	rows := mockRows(t, sqlmock.NewRows([]string{"hidden"}).AddRow("x"))

	_, err := queries.Decode[Pet](rows)
	var de *queries.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "hidden", de.Column)
}

type Owner struct {
	ID int64
	*Timestamps
}

func TestDecodeEmbeddedPointer(t *testing.T) {
	now := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := mockRows(t, sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))

	owner, err := queries.Decode[Owner](rows)
	require.NoError(t, err)
	require.NotNil(t, owner.Timestamps)
	assert.Equal(t, now, owner.CreatedAt)
}

type audit struct {
	Note string
}

type Visit struct {
	ID int64
	*audit
}

type Booking struct {
	ID int64
	audit
}

func TestDecodeUnexportedEmbeddedPointer(t *testing.T) {
	rows := mockRows(t, sqlmock.NewRows([]string{"id", "note"}).AddRow(int64(1), "vet"))

	var err error
	assert.NotPanics(t, func() { _, err = queries.Decode[Visit](rows) })
	var de *queries.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "note", de.Column)
}

func TestDecodeUnexportedEmbeddedValue(t *testing.T) {
	rows := mockRows(t, sqlmock.NewRows([]string{"id", "note"}).AddRow(int64(2), "groomer"))

	b, err := queries.Decode[Booking](rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, "groomer", b.Note)
}

func TestDecodeMap(t *testing.T) {
	rows := mockRows(t, sqlmock.NewRows([]string{"id", "blob", "note"}).
		AddRow(int64(1), []byte("abc"), nil))

	m, err := queries.Decode[map[string]any](rows)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1), "blob": []byte("abc"), "note": nil}, m)
}

func TestDecodeScalar(t *testing.T) {
	t.Run("int", func(t *testing.T) {
		rows := mockRows(t, sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))
		n, err := queries.Decode[int](rows)
		require.NoError(t, err)
		assert.Equal(t, 12, n)
	})

	t.Run("time is a scalar", func(t *testing.T) {
		now := time.Date(2022, 2, 2, 0, 0, 0, 0, time.UTC)
		rows := mockRows(t, sqlmock.NewRows([]string{"now"}).AddRow(now))
		got, err := queries.Decode[time.Time](rows)
		require.NoError(t, err)
		assert.Equal(t, now, got)
	})

	t.Run("sql.Null is a scalar", func(t *testing.T) {
		rows := mockRows(t, sqlmock.NewRows([]string{"name"}).AddRow(nil))
		got, err := queries.Decode[sql.NullString](rows)
		require.NoError(t, err)
		assert.False(t, got.Valid)
	})

	t.Run("two columns", func(t *testing.T) {
		rows := mockRows(t, sqlmock.NewRows([]string{"a", "b"}).AddRow(int64(1), int64(2)))
		_, err := queries.Decode[int64](rows)
		var de *queries.DecodeError
		require.ErrorAs(t, err, &de)
		assert.Empty(t, de.Column)
	})

	t.Run("bad conversion names the column", func(t *testing.T) {
		rows := mockRows(t, sqlmock.NewRows([]string{"n"}).AddRow("twelve"))
		_, err := queries.Decode[int64](rows)
		var de *queries.DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "n", de.Column)
	})
}

type point struct{ X, Y int64 }

func (p *point) ScanRow(rows queries.Rows) error {
	return rows.Scan(&p.Y, &p.X)
}

func TestDecodeRowScanner(t *testing.T) {
	rows := mockRows(t, sqlmock.NewRows([]string{"a", "b"}).AddRow(int64(1), int64(2)))
	p, err := queries.Decode[point](rows)
	require.NoError(t, err)
	assert.Equal(t, point{X: 2, Y: 1}, p)
}
