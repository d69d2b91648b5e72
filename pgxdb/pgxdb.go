// Package pgxdb adapts pgx (github.com/jackc/pgx/v5) to the queries executor
// interfaces without going through database/sql.
package pgxdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shipq/queries"
)

// Dialect is the dialect every pgx executor reports.
const Dialect = "postgres"

// DB is the part of *pgxpool.Pool and *pgx.Conn the adapter uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

var (
	_ DB = (*pgxpool.Pool)(nil)
	_ DB = (*pgx.Conn)(nil)
)

// Pool is a queries.Pool over a pgx pool or connection.
type Pool struct {
	db     DB
	txOpts pgx.TxOptions
}

// Option configures a Pool.
type Option func(*Pool)

// WithTxOptions sets the options used by Begin.
func WithTxOptions(opts pgx.TxOptions) Option {
	return func(p *Pool) { p.txOpts = opts }
}

// New wraps db, usually a *pgxpool.Pool.
func New(db DB, opts ...Option) *Pool {
	p := &Pool{db: db}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pool) Query(ctx context.Context, sql string, args ...any) (queries.Rows, error) {
	return runQuery(ctx, p.db, sql, args)
}

func (p *Pool) Begin(ctx context.Context) (queries.Tx, error) {
	tx, err := p.db.BeginTx(ctx, p.txOpts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

func (p *Pool) Dialect() string { return Dialect }

// Close closes the underlying pool when it is a *pgxpool.Pool.
func (p *Pool) Close() error {
	if pool, ok := p.db.(*pgxpool.Pool); ok {
		pool.Close()
	}
	return nil
}

// Tx is a queries.Tx over a pgx.Tx.
type Tx struct {
	tx pgx.Tx
}

// NewTx wraps a transaction begun elsewhere.
func NewTx(tx pgx.Tx) *Tx {
	return &Tx{tx: tx}
}

func (t *Tx) Query(ctx context.Context, sql string, args ...any) (queries.Rows, error) {
	return runQuery(ctx, t.tx, sql, args)
}

func (t *Tx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
func (t *Tx) Dialect() string                    { return Dialect }

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func runQuery(ctx context.Context, q querier, sql string, args []any) (queries.Rows, error) {
	r, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return WrapRows(r), nil
}

// WrapRows adapts pgx.Rows to queries.Rows. Column names come from the field
// descriptions.
func WrapRows(r pgx.Rows) queries.Rows {
	return rows{r}
}

type rows struct {
	pgx.Rows
}

func (r rows) Columns() ([]string, error) {
	fds := r.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}
	return cols, nil
}

// Close releases the connection. pgx reports failures through Err, which
// the decoder has already checked.
func (r rows) Close() error {
	r.Rows.Close()
	return nil
}

var (
	_ queries.Pool            = (*Pool)(nil)
	_ queries.Tx              = (*Tx)(nil)
	_ queries.DialectProvider = (*Pool)(nil)
	_ queries.DialectProvider = (*Tx)(nil)
)
