package queries

import (
	"context"
	"database/sql"
	"fmt"
)

// Rows is a forward-only cursor over the result of a query.
// *sql.Rows satisfies it directly; other drivers are adapted (see pgxdb).
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Executor runs a query with positionally bound arguments.
// Both pool-backed and transaction-backed adapters implement it.
type Executor interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Pool is an Executor that can open transactions.
type Pool interface {
	Executor
	Begin(ctx context.Context) (Tx, error)
}

// Tx is an Executor bound to a single database transaction.
type Tx interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DialectProvider is implemented by executors that know which database
// engine they talk to ("postgres", "mysql" or "sqlite").
type DialectProvider interface {
	Dialect() string
}

// Compile-time check that *sql.Rows is usable as Rows.
var _ Rows = (*sql.Rows)(nil)

// MustMatchDialect panics if ex reports a dialect other than want.
// Executors that do not implement DialectProvider are accepted as-is.
//
// Generated constructors call this so that a declaration written for one
// engine cannot silently run against another.
func MustMatchDialect(ex Executor, want string) {
	dp, ok := ex.(DialectProvider)
	if !ok {
		return
	}
	if got := dp.Dialect(); got != "" && got != want {
		panic(fmt.Sprintf("queries: executor dialect %q does not match declared database %q", got, want))
	}
}
