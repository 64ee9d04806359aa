package engine

import (
	"sync/atomic"

	"github.com/Framework-R-D/meld/internal/graph"
	"github.com/Framework-R-D/meld/internal/store"
)

// node is the runtime counterpart of a graph.NodeSpec: the concurrency
// semaphore, join table, per-kind accumulator/arena state, execution
// counter, and the adjacency used to forward produced labels onward.
type node struct {
	spec *graph.NodeSpec

	runner *Runner

	sem chan struct{}

	execCount atomic.Uint64

	slots     map[string]int // data input label -> join bit slot
	predSlots map[graph.QualifiedName]int
	joins     *joinTable

	fold   *foldTable
	unfold *unfoldArena
}

func newNode(spec *graph.NodeSpec, runner *Runner) *node {
	n := &node{
		spec:      spec,
		runner:    runner,
		slots:     make(map[string]int),
		predSlots: make(map[graph.QualifiedName]int),
	}

	slot := 0
	for _, label := range spec.InputLabels {
		n.slots[label] = slot
		slot++
	}
	for _, pred := range spec.Predicates {
		n.predSlots[pred] = slot
		slot++
	}
	n.joins = newJoinTable(slot)

	hardwareThreads := runner.hardwareThreads
	capacity := spec.Concurrency.Resolve(hardwareThreads)
	n.sem = make(chan struct{}, capacity)

	switch spec.Kind {
	case graph.KindFold:
		n.fold = newFoldTable()
	case graph.KindUnfold:
		n.unfold = newUnfoldArena()
	}

	return n
}

// slotFor returns the join bit slot a label arrives on, whether it's a
// plain data input or a gating predicate's own output label.
func (n *node) slotFor(label string) (int, bool) {
	if s, ok := n.slots[label]; ok {
		return s, true
	}
	for pred, s := range n.predSlots {
		if pred.String() == label {
			return s, true
		}
	}
	return 0, false
}

// gatesOK reports whether every predicate this node requires evaluated true
// on s.
func (n *node) gatesOK(s *store.Store) bool {
	for pred := range n.predSlots {
		v, _, ok := s.GetAncestor(pred.String())
		if !ok {
			return false
		}
		b, ok := v.(bool)
		if !ok || !b {
			return false
		}
	}
	return true
}

// acquire blocks until an in-flight slot is free, enforcing the node's
// declared concurrency cap.
func (n *node) acquire() {
	n.sem <- struct{}{}
}

func (n *node) release() {
	<-n.sem
}

// deliverFlush is called once per flush on every node in the graph. Only
// fold nodes act on it (supplying the expected child count for the
// partition it closes, filtered by level name); every other kind needs no
// explicit relay, since the same flush reaches the fold that actually
// aggregates directly from this same broadcast.
func (n *node) deliverFlush(msg store.Message) {
	if n.runner.isFatal() {
		return
	}
	if n.spec.Kind == graph.KindFold {
		n.handleFoldFlush(msg)
	}
}
