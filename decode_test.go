package queries_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipq/queries"
	"github.com/shipq/queries/internal/fakedb"
	"github.com/shipq/queries/proptest"
)

func TestSingle(t *testing.T) {
	ctx := context.Background()

	t.Run("one row", func(t *testing.T) {
		rows := fakedb.Ints(1)
		n, err := queries.Single(ctx, rows, queries.Decode[int32])
		require.NoError(t, err)
		assert.Equal(t, int32(1), n)
		assert.True(t, rows.Closed())
	})

	t.Run("no rows", func(t *testing.T) {
		rows := fakedb.Ints()
		_, err := queries.Single(ctx, rows, queries.Decode[int32])
		assert.ErrorIs(t, err, queries.ErrRowNotFound)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.True(t, rows.Closed())
	})

	t.Run("two rows", func(t *testing.T) {
		rows := fakedb.Ints(1, 2)
		_, err := queries.Single(ctx, rows, queries.Decode[int32])
		assert.ErrorIs(t, err, queries.ErrMultipleRowsFound)
		assert.Equal(t, 2, rows.Pulls(), "must stop right after the second row")
		assert.True(t, rows.Closed())
	})

	t.Run("many rows stops after second", func(t *testing.T) {
		rows := fakedb.Ints(1, 2, 3, 4, 5)
		_, err := queries.Single(ctx, rows, queries.Decode[int32])
		assert.ErrorIs(t, err, queries.ErrMultipleRowsFound)
		assert.Equal(t, 2, rows.Pulls())
	})

	t.Run("row error", func(t *testing.T) {
		boom := errors.New("connection reset")
		rows := fakedb.Ints(1).WithFailure(0, boom)
		_, err := queries.Single(ctx, rows, queries.Decode[int32])
		assert.ErrorIs(t, err, boom)
	})

	t.Run("decode error", func(t *testing.T) {
		rows := fakedb.NewRows([]string{"a", "b"}, []any{1, 2})
		_, err := queries.Single(ctx, rows, queries.Decode[int32])
		var de *queries.DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, 0, de.Row)
	})

	t.Run("bad first row reports decode error before extra rows", func(t *testing.T) {
		rows := fakedb.NewRows([]string{"a", "b"}, []any{1, 2}, []any{3, 4})
		_, err := queries.Single(ctx, rows, queries.Decode[int32])
		var de *queries.DecodeError
		require.ErrorAs(t, err, &de)
		assert.NotErrorIs(t, err, queries.ErrMultipleRowsFound)
		assert.Equal(t, 1, rows.Pulls())
		assert.True(t, rows.Closed())
	})
}

func TestOptional(t *testing.T) {
	ctx := context.Background()

	t.Run("no rows is absent", func(t *testing.T) {
		rows := fakedb.Ints()
		got, err := queries.Optional(ctx, rows, queries.Decode[int64])
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.True(t, rows.Closed())
	})

	t.Run("one row is present", func(t *testing.T) {
		got, err := queries.Optional(ctx, fakedb.Ints(7), queries.Decode[int64])
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(7), *got)
	})

	t.Run("two rows", func(t *testing.T) {
		got, err := queries.Optional(ctx, fakedb.Ints(7, 8), queries.Decode[int64])
		assert.ErrorIs(t, err, queries.ErrMultipleRowsFound)
		assert.Nil(t, got)
	})

	t.Run("bad first row reports decode error before extra rows", func(t *testing.T) {
		rows := fakedb.NewRows([]string{"a", "b"}, []any{1, 2}, []any{3, 4})
		got, err := queries.Optional(ctx, rows, queries.Decode[int64])
		var de *queries.DecodeError
		require.ErrorAs(t, err, &de)
		assert.Nil(t, got)
		assert.Equal(t, 1, rows.Pulls())
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()

	for _, n := range []int{0, 1, 2, 17} {
		t.Run(fmt.Sprintf("%d rows", n), func(t *testing.T) {
			vals := make([]int64, n)
			for i := range vals {
				vals[i] = int64(n - i)
			}
			rows := fakedb.Ints(vals...)
			got, err := queries.List(ctx, rows, queries.Decode[int64])
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, vals, got)
			assert.True(t, rows.Closed())
		})
	}

	t.Run("decode failure discards the prefix", func(t *testing.T) {
		rows := fakedb.NewRows([]string{"n"}, []any{int64(1)}, []any{"nope"}, []any{int64(3)})
		got, err := queries.List(ctx, rows, queries.Decode[int64])
		assert.Nil(t, got)
		var de *queries.DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, 1, de.Row)
		assert.Equal(t, "n", de.Column)
		assert.True(t, rows.Closed())
	})

	t.Run("close error", func(t *testing.T) {
		rows := fakedb.Ints(1)
		rows.CloseErr = errors.New("close failed")
		_, err := queries.List(ctx, rows, queries.Decode[int64])
		assert.EqualError(t, err, "close failed")
	})
}

func TestStream(t *testing.T) {
	ctx := context.Background()

	t.Run("yields rows in order", func(t *testing.T) {
		released := 0
		rows := fakedb.Ints(3, 1, 2)
		seq := queries.Stream(ctx, rows, queries.Decode[int64], func() { released++ })

		assert.Equal(t, 0, rows.Pulls(), "stream must not pull before iteration")

		var got []int64
		for v, err := range seq {
			require.NoError(t, err)
			got = append(got, v)
		}
		assert.Equal(t, []int64{3, 1, 2}, got)
		assert.True(t, rows.Closed())
		assert.Equal(t, 1, released)
	})

	t.Run("pulls lazily", func(t *testing.T) {
		rows := fakedb.Ints(1, 2, 3, 4)
		for v, err := range queries.Stream(ctx, rows, queries.Decode[int64], nil) {
			require.NoError(t, err)
			assert.Equal(t, int(v), rows.Pulls())
		}
	})

	t.Run("break closes rows", func(t *testing.T) {
		released := false
		rows := fakedb.Ints(1, 2, 3)
		for range queries.Stream(ctx, rows, queries.Decode[int64], func() { released = true }) {
			break
		}
		assert.True(t, rows.Closed())
		assert.True(t, released)
		assert.Equal(t, 1, rows.Pulls())
	})

	t.Run("decode error is terminal", func(t *testing.T) {
		rows := fakedb.NewRows([]string{"n"}, []any{int64(1)}, []any{"bad"}, []any{int64(3)})
		var vals []int64
		var errs []error
		for v, err := range queries.Stream(ctx, rows, queries.Decode[int64], nil) {
			if err != nil {
				errs = append(errs, err)
				continue
			}
			vals = append(vals, v)
		}
		assert.Equal(t, []int64{1}, vals)
		require.Len(t, errs, 1)
		var de *queries.DecodeError
		assert.ErrorAs(t, errs[0], &de)
	})

	t.Run("row error is terminal", func(t *testing.T) {
		boom := errors.New("network")
		rows := fakedb.Ints(1, 2, 3).WithFailure(2, boom)
		var vals []int64
		var last error
		for v, err := range queries.Stream(ctx, rows, queries.Decode[int64], nil) {
			if err != nil {
				last = err
				continue
			}
			vals = append(vals, v)
		}
		assert.Equal(t, []int64{1, 2}, vals)
		assert.ErrorIs(t, last, boom)
	})

	t.Run("second iteration", func(t *testing.T) {
		seq := queries.Stream(ctx, fakedb.Ints(1), queries.Decode[int64], nil)
		for range seq {
		}
		var errs []error
		for _, err := range seq {
			errs = append(errs, err)
		}
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], queries.ErrStreamConsumed)
	})

	t.Run("close error after exhaustion", func(t *testing.T) {
		rows := fakedb.Ints(1)
		rows.CloseErr = errors.New("close failed")
		var last error
		for _, err := range queries.Stream(ctx, rows, queries.Decode[int64], nil) {
			last = err
		}
		assert.EqualError(t, last, "close failed")
	})
}

func TestExec(t *testing.T) {
	rows := fakedb.Ints(1, 2, 3)
	require.NoError(t, queries.Exec(context.Background(), rows))
	assert.Equal(t, 3, rows.Pulls())
	assert.True(t, rows.Closed())

	boom := errors.New("constraint violated")
	assert.ErrorIs(t, queries.Exec(context.Background(), fakedb.Ints(1).WithFailure(0, boom)), boom)
}

func TestCancellation(t *testing.T) {
	t.Run("before the first pull", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rows := fakedb.Ints(1, 2)
		got, err := queries.List(ctx, rows, queries.Decode[int64])
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, got)
		assert.Equal(t, 0, rows.Pulls())
		assert.True(t, rows.Closed())
	})

	t.Run("between pulls", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		rows := fakedb.Ints(1, 2, 3, 4)
		rows.OnNext = func(pos int) {
			if pos == 2 {
				cancel()
			}
		}
		got, err := queries.List(ctx, rows, queries.Decode[int64])
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, got, "no partial results on cancellation")
		assert.True(t, rows.Closed())
	})

	t.Run("mid stream", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		rows := fakedb.Ints(1, 2, 3)
		var vals []int64
		var last error
		for v, err := range queries.Stream(ctx, rows, queries.Decode[int64], nil) {
			if err != nil {
				last = err
				continue
			}
			vals = append(vals, v)
			cancel()
		}
		assert.Equal(t, []int64{1}, vals)
		assert.ErrorIs(t, last, context.Canceled)
		assert.True(t, rows.Closed())
	})
}

func TestShapeConsistency(t *testing.T) {
	ctx := context.Background()

	proptest.Check(t, "every shape agrees with List on the same rows", 200, func(g *proptest.Generator) error {
		vals := proptest.Slice(g, 8, func(g *proptest.Generator) int64 { return g.Int64() })

		list, err := queries.List(ctx, fakedb.Ints(vals...), queries.Decode[int64])
		if err != nil {
			return err
		}
		if !slices.Equal(list, vals) {
			return fmt.Errorf("list %v != rows %v", list, vals)
		}

		var streamed []int64
		for v, err := range queries.Stream(ctx, fakedb.Ints(vals...), queries.Decode[int64], nil) {
			if err != nil {
				return err
			}
			streamed = append(streamed, v)
		}
		if !slices.Equal(streamed, list) {
			return fmt.Errorf("stream %v != list %v", streamed, list)
		}

		single, err := queries.Single(ctx, fakedb.Ints(vals...), queries.Decode[int64])
		opt, optErr := queries.Optional(ctx, fakedb.Ints(vals...), queries.Decode[int64])
		switch len(vals) {
		case 0:
			if !errors.Is(err, queries.ErrRowNotFound) || optErr != nil || opt != nil {
				return fmt.Errorf("0 rows: single err %v, optional (%v, %v)", err, opt, optErr)
			}
		case 1:
			if err != nil || single != vals[0] || optErr != nil || opt == nil || *opt != vals[0] {
				return fmt.Errorf("1 row: single (%v, %v), optional (%v, %v)", single, err, opt, optErr)
			}
		default:
			if !errors.Is(err, queries.ErrMultipleRowsFound) || !errors.Is(optErr, queries.ErrMultipleRowsFound) {
				return fmt.Errorf("%d rows: single err %v, optional err %v", len(vals), err, optErr)
			}
		}
		return nil
	})
}

func TestShapeString(t *testing.T) {
	names := []string{"single", "optional", "list", "stream", "exec"}
	for i, s := range []queries.Shape{queries.ShapeSingle, queries.ShapeOptional, queries.ShapeList, queries.ShapeStream, queries.ShapeExec} {
		assert.Equal(t, names[i], s.String())
	}
	assert.Equal(t, "Shape(42)", queries.Shape(42).String())
}
