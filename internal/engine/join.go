package engine

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/Framework-R-D/meld/internal/store"
)

// joinEntry is the partial-tuple record for one coincidence (original_id)
// at one node: an atomic filled bitset over the node's data input labels
// plus its gating predicates, and the store carrying the products once
// they're all present. A single atomic bitmask suffices because every
// slot is fixed and statically known.
type joinEntry struct {
	filled atomic.Uint64
	s      *store.Store
	ticket store.Ticket
}

// joinTable coalesces arrivals sharing the same original_id into a single
// completion event, keyed by a concurrent map so independent coincidences
// never block one another.
type joinTable struct {
	entries  *xsync.MapOf[store.OriginalID, *joinEntry]
	fullMask uint64
}

func newJoinTable(bits int) *joinTable {
	var mask uint64
	if bits > 0 {
		mask = (uint64(1) << uint(bits)) - 1
	}
	return &joinTable{
		entries:  xsync.NewMapOf[store.OriginalID, *joinEntry](),
		fullMask: mask,
	}
}

// arrive records that bit slot arrived for originalID, carried on s/ticket.
// Returns (true, entry store, entry ticket) exactly once per originalID, the
// moment the last bit lands; subsequent or earlier calls return false.
func (j *joinTable) arrive(originalID store.OriginalID, slot int, s *store.Store, ticket store.Ticket) (complete bool, completedStore *store.Store, completedTicket store.Ticket) {
	bit := uint64(1) << uint(slot)
	e, _ := j.entries.LoadOrCompute(originalID, func() *joinEntry {
		return &joinEntry{s: s, ticket: ticket}
	})

	for {
		old := e.filled.Load()
		next := old | bit
		if next == old {
			// Duplicate arrival for a slot already marked; arrival order
			// within a single (node, port, original_id) is serialized
			// upstream, so this is a no-op rather than an error.
			return false, nil, 0
		}
		if e.filled.CompareAndSwap(old, next) {
			if next == j.fullMask {
				j.entries.Delete(originalID)
				return true, e.s, e.ticket
			}
			return false, nil, 0
		}
	}
}

// forget drops any partial tuple for originalID without completing it, used
// when a fatal error aborts the run and partial state must not leak.
func (j *joinTable) forget(originalID store.OriginalID) {
	j.entries.Delete(originalID)
}
