package queries

import (
	"context"
	"sync"
	"sync/atomic"
)

const (
	txIdle int32 = iota
	txBorrowed
	txClosed
)

// TxHandle grants exclusive, one-call-at-a-time access to a transaction and
// refuses every use after Commit or Rollback.
//
// A caller that overlaps with a call in flight gets ErrTxBusy rather than
// waiting. Callers sharing one transaction must serialize themselves.
type TxHandle struct {
	tx    Tx
	state atomic.Int32
}

// NewTxHandle wraps tx.
func NewTxHandle(tx Tx) *TxHandle {
	return &TxHandle{tx: tx}
}

// Acquire borrows the transaction for one call. The returned release func
// must be called when the call is done with the executor; calling it more
// than once is harmless.
func (h *TxHandle) Acquire() (Executor, func(), error) {
	if !h.state.CompareAndSwap(txIdle, txBorrowed) {
		return nil, nil, h.unavailable()
	}
	var once sync.Once
	release := func() {
		once.Do(func() {
			h.state.CompareAndSwap(txBorrowed, txIdle)
		})
	}
	return h.tx, release, nil
}

// Commit commits the transaction. The handle is closed afterwards whether or
// not the commit succeeded.
func (h *TxHandle) Commit(ctx context.Context) error {
	if !h.state.CompareAndSwap(txIdle, txClosed) {
		return h.unavailable()
	}
	return h.tx.Commit(ctx)
}

// Rollback aborts the transaction. The handle is closed afterwards whether or
// not the rollback succeeded.
func (h *TxHandle) Rollback(ctx context.Context) error {
	if !h.state.CompareAndSwap(txIdle, txClosed) {
		return h.unavailable()
	}
	return h.tx.Rollback(ctx)
}

// Closed reports whether Commit or Rollback has been called.
func (h *TxHandle) Closed() bool {
	return h.state.Load() == txClosed
}

func (h *TxHandle) unavailable() error {
	if h.state.Load() == txClosed {
		return ErrTxClosed
	}
	return ErrTxBusy
}
