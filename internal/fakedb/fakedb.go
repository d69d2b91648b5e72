// Package fakedb provides in-memory implementations of the queries executor
// interfaces for tests.
package fakedb

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sync"

	"github.com/shipq/queries"
)

// Rows is a slice-backed queries.Rows.
type Rows struct {
	Cols []string
	Data [][]any

	// FailAt makes Next fail (returning false, with Fail from Err) when it
	// would advance to row FailAt. Negative disables it.
	FailAt int
	Fail   error

	CloseErr error

	// OnNext, if set, is called before every Next.
	OnNext func(pos int)

	mu     sync.Mutex
	pos    int
	pulls  int
	closed bool
	err    error
}

// NewRows returns rows with the given column names and data.
func NewRows(cols []string, data ...[]any) *Rows {
	return &Rows{Cols: cols, Data: data, FailAt: -1}
}

// Ints returns single-column rows holding vals.
func Ints(vals ...int64) *Rows {
	data := make([][]any, len(vals))
	for i, v := range vals {
		data[i] = []any{v}
	}
	return NewRows([]string{"n"}, data...)
}

// WithFailure makes Next fail with err when reaching row at.
func (r *Rows) WithFailure(at int, err error) *Rows {
	r.FailAt = at
	r.Fail = err
	return r
}

func (r *Rows) Columns() ([]string, error) {
	return r.Cols, nil
}

func (r *Rows) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.OnNext != nil {
		r.OnNext(r.pos)
	}
	if r.closed || r.err != nil {
		return false
	}
	if r.FailAt >= 0 && r.pos == r.FailAt {
		r.err = r.Fail
		return false
	}
	if r.pos >= len(r.Data) {
		return false
	}
	r.pos++
	r.pulls++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos == 0 || r.closed {
		return fmt.Errorf("fakedb: Scan called without a current row")
	}
	row := r.Data[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("fakedb: expected %d destination arguments in Scan, not %d", len(row), len(dest))
	}
	for i, d := range dest {
		if err := assign(d, row[i]); err != nil {
			return fmt.Errorf("fakedb: column %d: %w", i, err)
		}
	}
	return nil
}

func (r *Rows) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Rows) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return r.CloseErr
}

// Closed reports whether Close was called.
func (r *Rows) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Pulls reports how many rows Next has advanced over.
func (r *Rows) Pulls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pulls
}

func assign(dest, src any) error {
	if s, ok := dest.(sql.Scanner); ok {
		return s.Scan(src)
	}
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("destination not a pointer: %T", dest)
	}
	dv = dv.Elem()
	if src == nil {
		dv.Set(reflect.Zero(dv.Type()))
		return nil
	}
	sv := reflect.ValueOf(src)
	switch {
	case sv.Type().AssignableTo(dv.Type()):
		dv.Set(sv)
	case sv.Type().ConvertibleTo(dv.Type()) && sv.Kind() != reflect.String && dv.Kind() != reflect.String:
		dv.Set(sv.Convert(dv.Type()))
	case sv.Kind() == reflect.String && dv.Kind() == reflect.String:
		dv.SetString(sv.String())
	default:
		return fmt.Errorf("cannot scan %T into %s", src, dv.Type())
	}
	return nil
}

// Call is one recorded Query invocation.
type Call struct {
	Query string
	Args  []any
}

// Executor records every query and answers with Respond.
type Executor struct {
	// Respond produces the rows for a query. A nil Respond answers with
	// empty rows.
	Respond func(query string, args []any) (queries.Rows, error)

	mu    sync.Mutex
	calls []Call
}

func (e *Executor) Query(ctx context.Context, query string, args ...any) (queries.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.calls = append(e.calls, Call{Query: query, Args: args})
	e.mu.Unlock()
	if e.Respond == nil {
		return NewRows(nil), nil
	}
	return e.Respond(query, args)
}

// Calls returns a copy of the recorded calls.
func (e *Executor) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// Pool is a fake queries.Pool. Transactions it begins share its Respond.
type Pool struct {
	Executor
	DialectName string
	BeginErr    error

	mu  sync.Mutex
	txs []*Tx
}

func (p *Pool) Begin(ctx context.Context) (queries.Tx, error) {
	if p.BeginErr != nil {
		return nil, p.BeginErr
	}
	tx := &Tx{Executor: Executor{Respond: p.Respond}}
	p.mu.Lock()
	p.txs = append(p.txs, tx)
	p.mu.Unlock()
	return tx, nil
}

func (p *Pool) Dialect() string {
	return p.DialectName
}

// Txs returns the transactions begun so far.
func (p *Pool) Txs() []*Tx {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Tx(nil), p.txs...)
}

// Tx is a fake queries.Tx.
type Tx struct {
	Executor
	CommitErr error

	mu         sync.Mutex
	committed  int
	rolledBack int
}

func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.committed++
	return t.CommitErr
}

func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolledBack++
	return nil
}

// Committed reports how many times Commit was called.
func (t *Tx) Committed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committed
}

// RolledBack reports how many times Rollback was called.
func (t *Tx) RolledBack() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rolledBack
}

var (
	_ queries.Rows            = (*Rows)(nil)
	_ queries.Pool            = (*Pool)(nil)
	_ queries.Tx              = (*Tx)(nil)
	_ queries.DialectProvider = (*Pool)(nil)
)
