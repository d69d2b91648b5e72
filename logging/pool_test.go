package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipq/queries"
	"github.com/shipq/queries/internal/fakedb"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		out = append(out, rec)
	}
	return out
}

func TestPoolLogsQueries(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	inner := &fakedb.Pool{
		DialectName: "sqlite",
		Executor: fakedb.Executor{Respond: func(string, []any) (queries.Rows, error) {
			return fakedb.Ints(1, 2, 3), nil
		}},
	}
	p := Pool(inner, newTestLogger(&buf))

	rows, err := p.Query(ctx, "SELECT n FROM t WHERE a = ?", 7)
	require.NoError(t, err)
	got, err := queries.List(ctx, rows, queries.Decode[int64])
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got)
	assert.Equal(t, []fakedb.Call{{Query: "SELECT n FROM t WHERE a = ?", Args: []any{7}}}, inner.Calls())

	recs := records(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "query_started", recs[0]["msg"])
	assert.Equal(t, "DEBUG", recs[0]["level"])
	assert.Equal(t, "SELECT n FROM t WHERE a = ?", recs[0]["sql"])
	assert.Equal(t, "query_completed", recs[1]["msg"])
	assert.Equal(t, "INFO", recs[1]["level"])
	assert.Equal(t, float64(3), recs[1]["rows"])

	callID, ok := recs[0]["call_id"].(string)
	require.True(t, ok)
	_, err = uuid.Parse(callID)
	assert.NoError(t, err)
	assert.Equal(t, callID, recs[1]["call_id"])
}

func TestPoolLogsRowErrors(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	boom := errors.New("connection reset")
	inner := &fakedb.Pool{Executor: fakedb.Executor{Respond: func(string, []any) (queries.Rows, error) {
		return fakedb.Ints(1, 2).WithFailure(1, boom), nil
	}}}
	p := Pool(inner, newTestLogger(&buf))

	rows, err := p.Query(ctx, "SELECT n FROM t")
	require.NoError(t, err)
	_, err = queries.List(ctx, rows, queries.Decode[int64])
	assert.ErrorIs(t, err, boom)

	recs := records(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "ERROR", recs[1]["level"])
	assert.Equal(t, "connection reset", recs[1]["error"])
	assert.Equal(t, float64(1), recs[1]["rows"])
}

func TestPoolLogsQueryFailure(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("syntax error")
	inner := &fakedb.Pool{Executor: fakedb.Executor{Respond: func(string, []any) (queries.Rows, error) {
		return nil, boom
	}}}

	_, err := Pool(inner, newTestLogger(&buf)).Query(context.Background(), "SELEC 1")
	assert.ErrorIs(t, err, boom)

	recs := records(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "query_failed", recs[1]["msg"])
	assert.Equal(t, "syntax error", recs[1]["error"])
}

func TestPoolWrapsTransactions(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	inner := &fakedb.Pool{DialectName: "postgres"}
	p := Pool(inner, newTestLogger(&buf))

	tx, err := p.Begin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "postgres", p.(queries.DialectProvider).Dialect())

	rows, err := tx.Query(ctx, "DELETE FROM t")
	require.NoError(t, err)
	require.NoError(t, queries.Exec(ctx, rows))
	require.NoError(t, tx.Commit(ctx))

	require.Len(t, inner.Txs(), 1)
	assert.Equal(t, 1, inner.Txs()[0].Committed())
	assert.Len(t, inner.Txs()[0].Calls(), 1)

	recs := records(t, &buf)
	require.Len(t, recs, 4)
	txID := recs[0]["tx_id"]
	assert.Equal(t, "tx_begin", recs[0]["msg"])
	assert.Equal(t, txID, recs[1]["tx_id"])
	assert.Equal(t, txID, recs[2]["tx_id"])
	assert.Equal(t, "tx_commit", recs[3]["msg"])
	assert.Equal(t, txID, recs[3]["tx_id"])
}

func TestPoolLogsFailedCommitAndBegin(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	inner := &fakedb.Pool{}
	p := Pool(inner, newTestLogger(&buf))

	tx, err := p.Begin(ctx)
	require.NoError(t, err)
	inner.Txs()[0].CommitErr = errors.New("serialization failure")
	assert.Error(t, tx.Commit(ctx))

	inner.BeginErr = errors.New("too many connections")
	_, err = p.Begin(ctx)
	assert.Error(t, err)

	recs := records(t, &buf)
	require.Len(t, recs, 3)
	assert.Equal(t, "tx_commit_failed", recs[1]["msg"])
	assert.Equal(t, "tx_begin_failed", recs[2]["msg"])
}

func TestPoolWithGeneratedStyleConstructor(t *testing.T) {
	p := Pool(&fakedb.Pool{DialectName: "mysql"}, slog.New(slog.DiscardHandler))
	assert.NotPanics(t, func() { queries.MustMatchDialect(p, "mysql") })
	assert.Panics(t, func() { queries.MustMatchDialect(p, "sqlite") })
}
