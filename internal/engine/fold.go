package engine

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/Framework-R-D/meld/internal/store"
)

// foldEntry is one fold's running state for a single partition: the
// accumulator, how many inputs have been accepted so far, and how many are
// expected (known only once the partition's flush token arrives). The two
// counters are a lock-free pair of atomics since a fold's "arrive" and
// "expect" can land in either order and must not block the caller.
type foldEntry struct {
	accum          any
	partitionStore *store.Store
	count          atomic.Int64
	stopAfter      atomic.Int64 // -1 until the partition's flush arrives
	committed      atomic.Bool

	// flushOriginalID/flushTicket record the coincidence the flush that
	// supplied stopAfter travelled under, so the eventual commit message
	// carries a meaningful original_id downstream.
	flushOriginalID store.OriginalID
	flushTicket     store.Ticket
}

const stopAfterUnset = -1

// foldTable holds one foldEntry per partition identifier for a single fold
// node.
type foldTable struct {
	entries *xsync.MapOf[string, *foldEntry]
}

func newFoldTable() *foldTable {
	return &foldTable{entries: xsync.NewMapOf[string, *foldEntry]()}
}

// getOrCreate returns the entry for partitionKey, lazily building a fresh
// accumulator via init on first sight. init runs at most once per key:
// LoadOrCompute invokes it for the first caller only, and concurrent callers
// receive that caller's entry.
func (t *foldTable) getOrCreate(partitionKey string, partitionStore *store.Store, init func() (any, error)) (*foldEntry, error) {
	var initErr error
	e, _ := t.entries.LoadOrCompute(partitionKey, func() *foldEntry {
		accum, err := init()
		if err != nil {
			initErr = err
		}
		entry := &foldEntry{accum: accum, partitionStore: partitionStore}
		entry.stopAfter.Store(stopAfterUnset)
		return entry
	})
	if initErr != nil {
		t.entries.Delete(partitionKey)
		return nil, initErr
	}
	return e, nil
}

// accept records one accepted input and reports whether the entry is now
// ready to commit (every expected input has landed and the flush already
// arrived).
func (t *foldTable) accept(e *foldEntry) (readyToCommit bool) {
	count := e.count.Add(1)
	stop := e.stopAfter.Load()
	return stop != stopAfterUnset && count == stop
}

// expect records the flush-supplied expected count and reports whether the
// entry is already ready to commit (every input had already landed before
// the flush arrived, including the zero-input boundary case).
func (t *foldTable) expect(e *foldEntry, stopAfter int64) (readyToCommit bool) {
	e.stopAfter.Store(stopAfter)
	return e.count.Load() == stopAfter
}

// tryCommit flips committed from false to true exactly once; only the
// caller that wins may publish the fold's result.
func (e *foldEntry) tryCommit() bool {
	return e.committed.CompareAndSwap(false, true)
}

// evict drops a partition's entry once it has committed, freeing the
// accumulator.
func (t *foldTable) evict(partitionKey string) {
	t.entries.Delete(partitionKey)
}
