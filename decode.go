package queries

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
)

// RowDecoder decodes the current row of rows into a record.
// It must only call Columns and Scan.
type RowDecoder[T any] func(Rows) (T, error)

// cursor pulls rows one at a time, checking for cancellation before each pull.
type cursor struct {
	ctx    context.Context
	rows   Rows
	pulled int
}

// next advances to the next row. It reports false with a nil error once the
// rows are exhausted.
func (c *cursor) next() (bool, error) {
	if err := c.ctx.Err(); err != nil {
		return false, err
	}
	if c.rows.Next() {
		c.pulled++
		return true, nil
	}
	if err := c.rows.Err(); err != nil {
		return false, err
	}
	// Next can return false because the context was cancelled mid-pull.
	return false, c.ctx.Err()
}

func decodeCurrent[T any](c *cursor, decode RowDecoder[T]) (T, error) {
	rec, err := decode(c.rows)
	if err == nil {
		return rec, nil
	}
	var zero T
	var de *DecodeError
	if errors.As(err, &de) {
		cp := *de
		cp.Row = c.pulled - 1
		return zero, &cp
	}
	return zero, &DecodeError{Row: c.pulled - 1, Err: err}
}

// collect consumes rows according to the row-count policy of shape and
// returns the decoded records in arrival order. rows is always closed.
func collect[T any](ctx context.Context, shape Shape, rows Rows, decode RowDecoder[T]) (out []T, err error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			out, err = nil, cerr
		}
	}()

	c := &cursor{ctx: ctx, rows: rows}
	for {
		ok, err := c.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if shape.atMostOne() && len(out) == 1 {
			return nil, ErrMultipleRowsFound
		}
		rec, err := decodeCurrent(c, decode)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	switch shape {
	case ShapeSingle:
		if len(out) == 0 {
			return nil, ErrRowNotFound
		}
	case ShapeOptional:
		// zero rows is a valid absent result
	case ShapeList:
		if out == nil {
			out = []T{}
		}
	default:
		return nil, errors.New("queries: collect called with shape " + shape.String())
	}
	return out, nil
}

// Single returns the only row of rows decoded with decode.
// It fails with ErrRowNotFound on zero rows and ErrMultipleRowsFound on more
// than one. The first row is decoded before the second is pulled, since
// advancing database/sql rows invalidates the current row; a first row that
// fails to decode reports a *DecodeError even if more rows follow.
func Single[T any](ctx context.Context, rows Rows, decode RowDecoder[T]) (T, error) {
	recs, err := collect(ctx, ShapeSingle, rows, decode)
	if err != nil {
		var zero T
		return zero, err
	}
	return recs[0], nil
}

// Optional returns the decoded row, or nil when rows is empty.
// It fails with ErrMultipleRowsFound on more than one row. As with Single,
// a first row that fails to decode reports a *DecodeError first.
func Optional[T any](ctx context.Context, rows Rows, decode RowDecoder[T]) (*T, error) {
	recs, err := collect(ctx, ShapeOptional, rows, decode)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

// List decodes every row in arrival order. An empty result is an empty,
// non-nil slice.
func List[T any](ctx context.Context, rows Rows, decode RowDecoder[T]) ([]T, error) {
	return collect(ctx, ShapeList, rows, decode)
}

const (
	streamFresh int32 = iota
	streamUsed
	streamAbandoned
)

// Stream returns a single-use sequence that pulls and decodes one row per
// step. A row or decode error is yielded once and ends the sequence.
//
// rows is closed and release (if non-nil) is called when iteration ends,
// including when the consumer breaks early. If ctx is done before iteration
// starts, rows is closed and release called right away; ranging over the
// sequence afterwards yields the context error.
func Stream[T any](ctx context.Context, rows Rows, decode RowDecoder[T], release func()) iter.Seq2[T, error] {
	var state atomic.Int32 // streamFresh, streamUsed or streamAbandoned
	finish := func() error {
		cerr := rows.Close()
		if release != nil {
			release()
		}
		return cerr
	}
	stop := context.AfterFunc(ctx, func() {
		if state.CompareAndSwap(streamFresh, streamAbandoned) {
			finish()
		}
	})

	return func(yield func(T, error) bool) {
		var zero T
		if !state.CompareAndSwap(streamFresh, streamUsed) {
			if state.Load() == streamAbandoned {
				yield(zero, ctx.Err())
			} else {
				yield(zero, ErrStreamConsumed)
			}
			return
		}
		stop()

		stopped := false
		defer func() {
			if cerr := finish(); cerr != nil && !stopped {
				yield(zero, cerr)
			}
		}()

		c := &cursor{ctx: ctx, rows: rows}
		for {
			ok, err := c.next()
			if err != nil {
				stopped = true
				yield(zero, err)
				return
			}
			if !ok {
				return
			}
			rec, err := decodeCurrent(c, decode)
			if !yield(rec, err) || err != nil {
				stopped = true
				return
			}
		}
	}
}

// Exec drains rows without decoding them and reports the first error.
func Exec(ctx context.Context, rows Rows) (err error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	c := &cursor{ctx: ctx, rows: rows}
	for {
		ok, err := c.next()
		if err != nil || !ok {
			return err
		}
	}
}
