// Package queries is the runtime behind code generated by queriesgen.
//
// Application code declares its SQL operations once, as methods of an
// annotated interface:
//
//	//queries:database sqlite
//	type UserQueries interface {
//		//queries:query SELECT id, name FROM users WHERE id = ?
//		GetUser(ctx context.Context, id int64) (*User, error)
//
//		//queries:query SELECT id, name FROM users ORDER BY id
//		ListUsers(ctx context.Context) ([]User, error)
//	}
//
// and queriesgen emits UserQueriesDB (bound to a Pool, with Begin) and
// UserQueriesTx (bound to a Tx, with Commit and Rollback). Both satisfy
// UserQueries.
//
// The declared result type picks how rows are decoded:
//
//	T                    exactly one row (ErrRowNotFound, ErrMultipleRowsFound)
//	*T                   zero or one row, nil when absent
//	[]T                  every row, in order
//	iter.Seq2[T, error]  rows decoded lazily while ranging
//	(error only)         rows are discarded
//
// Parameters are bound positionally in declaration order; the query text is
// passed to the driver untouched, so placeholders follow the driver's syntax.
// Records are decoded with Decode unless they implement RowScanner.
package queries
