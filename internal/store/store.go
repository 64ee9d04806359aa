// Package store implements the ProductStore: a context-scoped keyed bag
// of typed products, linked to its parent, plus the flush-token and
// store-cache machinery built on top of it.
package store

import (
	"sync"

	"github.com/Framework-R-D/meld/internal/errs"
	"github.com/Framework-R-D/meld/internal/levelid"
)

// Store is a node in the context tree holding typed products. Once a
// product is added under a label it is never replaced; reads observe a
// consistent snapshot.
type Store struct {
	id        levelid.ID
	parent    *Store
	sourceTag string

	mu       sync.RWMutex
	order    []string
	products map[string]any

	isFlush          bool
	expectedChildren int
}

// New constructs a non-flush store at id, owned by parent (nil at root),
// tagged with the name of whoever created it.
func New(id levelid.ID, parent *Store, sourceTag string) *Store {
	return &Store{
		id:        id,
		parent:    parent,
		sourceTag: sourceTag,
		products:  make(map[string]any),
	}
}

// NewChild constructs a new store one level below s, with the given index
// and level name.
func (s *Store) NewChild(index int, levelName, sourceTag string) *Store {
	return New(s.id.MakeChild(index, levelName), s, sourceTag)
}

// NewFlush constructs a flush token: an identifier plus the expected number
// of children that were emitted under it. A flush store carries no
// products.
func NewFlush(id levelid.ID, parent *Store, sourceTag string, expectedChildren int) *Store {
	return &Store{
		id:               id,
		parent:           parent,
		sourceTag:        sourceTag,
		isFlush:          true,
		expectedChildren: expectedChildren,
	}
}

// ID returns the store's immutable identifier.
func (s *Store) ID() levelid.ID { return s.id }

// Parent returns the owning parent store, or nil at root.
func (s *Store) Parent() *Store { return s.parent }

// SourceTag returns the name of whoever created this store.
func (s *Store) SourceTag() string { return s.sourceTag }

// IsFlush reports whether this store is a flush token.
func (s *Store) IsFlush() bool { return s.isFlush }

// ExpectedChildren returns the expected child count carried by a flush
// token. Meaningless on a non-flush store.
func (s *Store) ExpectedChildren() int { return s.expectedChildren }

// Put adds a product under label. Returns a *errs.LogicError if the label
// has already been set on this store (products are add-once).
func (s *Store) Put(label string, value any) error {
	if s.isFlush {
		return errs.NewLogicError("cannot add a product to a flush store")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[label]; exists {
		return errs.NewLogicError("product label " + label + " already set on store " + s.id.String())
	}
	s.order = append(s.order, label)
	s.products[label] = value
	return nil
}

// Get returns the product under label on this store only (no ancestor
// walk).
func (s *Store) Get(label string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.products[label]
	return v, ok
}

// GetAncestor walks the parent chain (starting at this store) looking for
// label, returning the value and the store it was found on.
func (s *Store) GetAncestor(label string) (any, *Store, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.Get(label); ok {
			return v, cur, true
		}
	}
	return nil, nil, false
}

// Labels returns the product labels in insertion order.
func (s *Store) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// AncestorAtLevel returns the first ancestor of s (s itself included) whose
// level name equals levelName.
func (s *Store) AncestorAtLevel(levelName string) (*Store, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.id.LevelName() == levelName {
			return cur, true
		}
	}
	return nil, false
}
