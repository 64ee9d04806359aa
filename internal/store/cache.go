package store

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/Framework-R-D/meld/internal/errs"
	"github.com/Framework-R-D/meld/internal/levelid"
)

// Cache memoizes the store created for each LevelId so that two messages
// that resolve to the same identifier observe the same *Store rather than
// racing to create duplicates.
type Cache struct {
	entries *xsync.MapOf[string, *entry]
}

type entry struct {
	store   *Store
	flushed bool
}

// NewCache constructs an empty store cache.
func NewCache() *Cache {
	return &Cache{entries: xsync.NewMapOf[string, *entry]()}
}

// Canonicalize returns the cached store for id if one exists; otherwise it
// installs make() as the canonical store for id and returns it. Only one
// caller's make() wins under concurrent first-access.
//
// Returns a *errs.LogicError if id was already flushed: a store may never
// be resurrected once its level has been closed out by a flush.
func (c *Cache) Canonicalize(id levelid.ID, make func() *Store) (*Store, error) {
	var creationErr error
	e, _ := c.entries.LoadOrCompute(id.Key(), func() *entry {
		return &entry{store: make()}
	})
	if e.flushed {
		creationErr = errs.NewLogicError("store reuse after flush for level " + id.String())
	}
	return e.store, creationErr
}

// Lookup returns the cached store for id without creating one.
func (c *Cache) Lookup(id levelid.ID) (*Store, bool) {
	e, ok := c.entries.Load(id.Key())
	if !ok {
		return nil, false
	}
	return e.store, true
}

// MarkFlushed records that id's level has been closed out by a flush. Any
// later Canonicalize for the same id returns a LogicError.
func (c *Cache) MarkFlushed(id levelid.ID) {
	c.entries.Compute(id.Key(), func(old *entry, loaded bool) (*entry, bool) {
		if !loaded {
			return &entry{flushed: true}, false
		}
		old.flushed = true
		return old, false
	})
}

// Evict drops id from the cache entirely, freeing the underlying store for
// garbage collection once nothing else references it.
func (c *Cache) Evict(id levelid.ID) {
	c.entries.Delete(id.Key())
}

// Len returns the number of stores currently tracked.
func (c *Cache) Len() int {
	return c.entries.Size()
}
