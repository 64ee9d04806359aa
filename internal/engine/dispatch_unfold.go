package engine

import (
	"github.com/Framework-R-D/meld/internal/errs"
	"github.com/Framework-R-D/meld/internal/store"
)

// runUnfold constructs the per-identifier stateful object on first arrival
// of the driver input and then drives the predicate/op loop to completion,
// emitting one child store per iteration plus a closing flush.
func (n *node) runUnfold(s *store.Store) {
	key := s.ID().Key()
	keyVal, ok := s.Get(n.spec.UnfoldKeyLabel)
	if !ok {
		n.runner.fail(errs.NewRuntimeError(n.spec.Name.String(), s.ID().String(), "missing unfold key label "+n.spec.UnfoldKeyLabel, nil))
		return
	}

	state, err := n.unfold.getOrCreate(key, func() (any, error) {
		return n.spec.UnfoldState(keyVal)
	})
	if err != nil {
		n.runner.fail(errs.NewRuntimeError(n.spec.Name.String(), s.ID().String(), "unfold constructor failed", err))
		return
	}

	v := n.spec.UnfoldSeed
	childIndex := 0
	for {
		more, err := n.spec.UnfoldPredicate(state, v)
		if err != nil {
			n.runner.fail(errs.NewRuntimeError(n.spec.Name.String(), s.ID().String(), "unfold predicate failed", err))
			return
		}
		if !more {
			break
		}

		nextV, chunk, err := n.spec.UnfoldOp(state, v)
		if err != nil {
			n.runner.fail(errs.NewRuntimeError(n.spec.Name.String(), s.ID().String(), "unfold step failed", err))
			return
		}

		child := s.NewChild(childIndex, n.spec.UnfoldNewLevelName, n.spec.Name.String())
		if err := child.Put(n.spec.UnfoldChunkLabel, chunk); err != nil {
			n.runner.fail(errs.NewRuntimeError(n.spec.Name.String(), child.ID().String(), "cannot publish unfold chunk", err))
			return
		}
		canon, err := n.runner.cache.Canonicalize(child.ID(), func() *store.Store { return child })
		if err != nil {
			n.runner.fail(err)
			return
		}

		event := n.runner.nextEvent()
		n.runner.dispatchLabels([]string{n.spec.UnfoldChunkLabel}, store.NewMessage(canon, store.OriginalID(event), event))

		v = nextV
		childIndex++
	}

	n.execCount.Add(1)
	n.unfold.evict(key)

	flush := store.NewFlush(s.ID(), s.Parent(), n.spec.Name.String(), childIndex)
	event := n.runner.nextEvent()
	n.runner.dispatchFlush(store.NewMessage(flush, store.OriginalID(event), event))
}
