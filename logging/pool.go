package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shipq/queries"
)

// Pool wraps p so that every query and transaction is logged to logger.
//
// Each query gets a call id. "query_started" is logged at debug level with
// the SQL text; "query_completed" is logged when the rows are closed, with
// the number of rows pulled, the duration and any error. Transactions begun
// through the returned pool are wrapped the same way and share a tx_id.
func Pool(p queries.Pool, logger *slog.Logger) queries.Pool {
	return &pool{inner: p, logger: logger}
}

type pool struct {
	inner  queries.Pool
	logger *slog.Logger
}

func (p *pool) Query(ctx context.Context, sql string, args ...any) (queries.Rows, error) {
	return logQuery(ctx, p.logger, p.inner, sql, args)
}

func (p *pool) Begin(ctx context.Context) (queries.Tx, error) {
	txID := uuid.NewString()
	tx, err := p.inner.Begin(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "tx_begin_failed", "tx_id", txID, "error", err)
		return nil, err
	}
	p.logger.DebugContext(ctx, "tx_begin", "tx_id", txID)
	return &loggedTx{inner: tx, logger: p.logger.With("tx_id", txID), started: time.Now()}, nil
}

// Dialect forwards to the wrapped pool, so the decorator can be handed to
// generated constructors.
func (p *pool) Dialect() string { return dialectOf(p.inner) }

type loggedTx struct {
	inner   queries.Tx
	logger  *slog.Logger
	started time.Time
}

func (t *loggedTx) Query(ctx context.Context, sql string, args ...any) (queries.Rows, error) {
	return logQuery(ctx, t.logger, t.inner, sql, args)
}

func (t *loggedTx) Commit(ctx context.Context) error {
	return t.finish(ctx, "tx_commit", t.inner.Commit(ctx))
}

func (t *loggedTx) Rollback(ctx context.Context) error {
	return t.finish(ctx, "tx_rollback", t.inner.Rollback(ctx))
}

func (t *loggedTx) finish(ctx context.Context, msg string, err error) error {
	attrs := []any{"duration_ms", durationMS(t.started)}
	if err != nil {
		t.logger.ErrorContext(ctx, msg+"_failed", append(attrs, "error", err)...)
		return err
	}
	t.logger.InfoContext(ctx, msg, attrs...)
	return nil
}

func (t *loggedTx) Dialect() string { return dialectOf(t.inner) }

func logQuery(ctx context.Context, logger *slog.Logger, ex queries.Executor, sql string, args []any) (queries.Rows, error) {
	callID := uuid.NewString()
	start := time.Now()
	logger.DebugContext(ctx, "query_started", "call_id", callID, "sql", sql, "args", len(args))

	rows, err := ex.Query(ctx, sql, args...)
	if err != nil {
		logger.ErrorContext(ctx, "query_failed",
			"call_id", callID,
			"duration_ms", durationMS(start),
			"error", err,
		)
		return nil, err
	}
	return &loggedRows{Rows: rows, ctx: ctx, logger: logger, callID: callID, start: start}, nil
}

type loggedRows struct {
	queries.Rows
	ctx    context.Context
	logger *slog.Logger
	callID string
	start  time.Time
	pulled int
	done   bool
}

func (r *loggedRows) Next() bool {
	if r.Rows.Next() {
		r.pulled++
		return true
	}
	return false
}

func (r *loggedRows) Close() error {
	cerr := r.Rows.Close()
	if r.done {
		return cerr
	}
	r.done = true

	err := r.Rows.Err()
	if err == nil {
		err = cerr
	}
	attrs := []any{
		"call_id", r.callID,
		"rows", r.pulled,
		"duration_ms", durationMS(r.start),
	}
	if err != nil {
		r.logger.ErrorContext(r.ctx, "query_completed", append(attrs, "error", err)...)
	} else {
		r.logger.InfoContext(r.ctx, "query_completed", attrs...)
	}
	return cerr
}

func dialectOf(v any) string {
	if d, ok := v.(queries.DialectProvider); ok {
		return d.Dialect()
	}
	return ""
}

func durationMS(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / 1e6
}

var (
	_ queries.Pool            = (*pool)(nil)
	_ queries.Tx              = (*loggedTx)(nil)
	_ queries.DialectProvider = (*pool)(nil)
)
