// Package sqldb adapts database/sql to the queries executor interfaces.
//
// Any database/sql driver works; the dialect passed to New is only used to
// reject generated receivers declared for another engine.
package sqldb

import (
	"context"
	"database/sql"

	"github.com/shipq/queries"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Compile-time checks that standard library types implement Querier.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Conn)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// DB is a queries.Pool over a *sql.DB.
type DB struct {
	db      *sql.DB
	dialect string
	txOpts  *sql.TxOptions
}

// Option configures a DB.
type Option func(*DB)

// WithTxOptions sets the options used by Begin.
func WithTxOptions(opts *sql.TxOptions) Option {
	return func(d *DB) { d.txOpts = opts }
}

// New wraps db. dialect is "postgres", "mysql" or "sqlite".
func New(db *sql.DB, dialect string, opts ...Option) *DB {
	d := &DB{db: db, dialect: dialect}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query runs query with positionally bound args.
func (d *DB) Query(ctx context.Context, query string, args ...any) (queries.Rows, error) {
	return runQuery(ctx, d.db, query, args)
}

// Begin starts a transaction.
func (d *DB) Begin(ctx context.Context) (queries.Tx, error) {
	tx, err := d.db.BeginTx(ctx, d.txOpts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, dialect: d.dialect}, nil
}

// Dialect reports the configured dialect.
func (d *DB) Dialect() string { return d.dialect }

// Unwrap returns the underlying *sql.DB.
func (d *DB) Unwrap() *sql.DB { return d.db }

// Close closes the underlying *sql.DB.
func (d *DB) Close() error { return d.db.Close() }

// Tx is a queries.Tx over a *sql.Tx.
type Tx struct {
	tx      *sql.Tx
	dialect string
}

// NewTx wraps a transaction begun elsewhere.
func NewTx(tx *sql.Tx, dialect string) *Tx {
	return &Tx{tx: tx, dialect: dialect}
}

func (t *Tx) Query(ctx context.Context, query string, args ...any) (queries.Rows, error) {
	return runQuery(ctx, t.tx, query, args)
}

// Commit commits the transaction. ctx is unused; database/sql binds the
// transaction to the context given to BeginTx.
func (t *Tx) Commit(ctx context.Context) error { return t.tx.Commit() }

// Rollback aborts the transaction.
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback() }

func (t *Tx) Dialect() string { return t.dialect }

func runQuery(ctx context.Context, q Querier, sqlText string, args []any) (queries.Rows, error) {
	rows, err := q.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

var (
	_ queries.Pool            = (*DB)(nil)
	_ queries.Tx              = (*Tx)(nil)
	_ queries.DialectProvider = (*DB)(nil)
	_ queries.DialectProvider = (*Tx)(nil)
)
