package engine

import (
	"github.com/Framework-R-D/meld/internal/errs"
	"github.com/Framework-R-D/meld/internal/store"
)

func (n *node) runFold(s *store.Store, originalID store.OriginalID, ticket store.Ticket) {
	partitionStore, ok := s.AncestorAtLevel(n.spec.LevelScope)
	if !ok {
		n.runner.fail(errs.NewLogicError("fold " + n.spec.Name.String() + " has no ancestor at partition level " + n.spec.LevelScope))
		return
	}
	key := partitionStore.ID().Key()

	entry, err := n.fold.getOrCreate(key, partitionStore, func() (any, error) {
		return n.spec.FoldInit(n.spec.FoldInitArgs)
	})
	if err != nil {
		n.runner.fail(errs.NewRuntimeError(n.spec.Name.String(), partitionStore.ID().String(), "fold initializer failed", err))
		return
	}

	v, _, ok := s.GetAncestor(n.spec.InputLabels[0])
	if !ok {
		n.runner.fail(errs.NewRuntimeError(n.spec.Name.String(), s.ID().String(), "missing fold input label "+n.spec.InputLabels[0], nil))
		return
	}
	if _, err := n.spec.Kernel([]any{entry.accum, v}); err != nil {
		n.runner.fail(errs.NewRuntimeError(n.spec.Name.String(), s.ID().String(), "fold kernel failed", err))
		return
	}

	n.execCount.Add(1)
	if n.fold.accept(entry) {
		n.commitFold(entry, key)
	}
}

// handleFoldFlush supplies the expected child count for the partition the
// flush closes; entry.flushOriginalID/flushTicket record the coincidence
// the eventual commit message travels under.
func (n *node) handleFoldFlush(msg store.Message) {
	if msg.Store.ID().LevelName() != n.spec.LevelScope {
		return
	}
	key := msg.Store.ID().Key()
	partition := n.runner.partitionStore(msg.Store)
	entry, err := n.fold.getOrCreate(key, partition, func() (any, error) {
		return n.spec.FoldInit(n.spec.FoldInitArgs)
	})
	if err != nil {
		n.runner.fail(errs.NewRuntimeError(n.spec.Name.String(), msg.Store.ID().String(), "fold initializer failed", err))
		return
	}
	entry.flushOriginalID = msg.OriginalID
	entry.flushTicket = msg.Ticket

	if n.fold.expect(entry, int64(msg.Store.ExpectedChildren())) {
		n.commitFold(entry, key)
	}
}

func (n *node) commitFold(entry *foldEntry, key string) {
	if !entry.tryCommit() {
		return
	}
	result := entry.accum
	if n.spec.FoldSend != nil {
		sent, err := n.spec.FoldSend(entry.accum)
		if err != nil {
			n.runner.fail(errs.NewRuntimeError(n.spec.Name.String(), entry.partitionStore.ID().String(), "fold send failed", err))
			return
		}
		result = sent
	}
	if err := entry.partitionStore.Put(n.spec.OutputLabels[0], result); err != nil {
		n.runner.fail(errs.NewRuntimeError(n.spec.Name.String(), entry.partitionStore.ID().String(), "cannot publish fold result", err))
		return
	}
	n.fold.evict(key)
	n.runner.dispatchLabels(n.spec.OutputLabels, store.NewMessage(entry.partitionStore, entry.flushOriginalID, entry.flushTicket))
}
