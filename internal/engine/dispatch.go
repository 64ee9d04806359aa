package engine

import (
	"time"

	"github.com/Framework-R-D/meld/internal/errs"
	"github.com/Framework-R-D/meld/internal/graph"
	"github.com/Framework-R-D/meld/internal/store"
)

// handleArrival is called once per (label, message) delivery this node is
// subscribed to. It marks the corresponding join slot and, once every slot
// for this original_id is filled, checks the node's gating predicates and
// runs the kernel.
func (n *node) handleArrival(label string, msg store.Message) {
	if n.runner.isFatal() {
		return
	}
	slot, ok := n.slotFor(label)
	if !ok {
		return
	}
	complete, s, ticket := n.joins.arrive(msg.OriginalID, slot, msg.Store, msg.Ticket)
	if !complete {
		return
	}
	if n.runner.isFatal() {
		return
	}
	if !n.gatesOK(s) {
		return
	}
	n.runExecute(s, msg.OriginalID, ticket)
}

func (n *node) runExecute(s *store.Store, originalID store.OriginalID, ticket store.Ticket) {
	n.acquire()
	defer n.release()

	name := n.spec.Name.String()
	storeID := s.ID().String()
	n.runner.observer.OnNodeStarted(name, storeID)
	started := time.Now()
	before := n.execCount.Load()

	switch n.spec.Kind {
	case graph.KindTransform:
		n.runTransform(s, originalID, ticket)
	case graph.KindPredicate:
		n.runPredicate(s, originalID, ticket)
	case graph.KindObserver, graph.KindSink:
		n.runObserver(s)
	case graph.KindFold:
		n.runFold(s, originalID, ticket)
	case graph.KindUnfold:
		n.runUnfold(s)
	}

	if n.execCount.Load() > before {
		n.runner.observer.OnNodeCompleted(name, storeID, time.Since(started))
	} else if n.runner.isFatal() {
		n.runner.observer.OnNodeFailed(name, storeID, n.runner.firstErr)
	}
}

func (n *node) gatherInputs(s *store.Store) ([]any, error) {
	args := make([]any, len(n.spec.InputLabels))
	for i, label := range n.spec.InputLabels {
		v, _, ok := s.GetAncestor(label)
		if !ok {
			return nil, errs.NewRuntimeError(n.spec.Name.String(), s.ID().String(), "missing required input label "+label, nil)
		}
		args[i] = v
	}
	return args, nil
}

func (n *node) runTransform(s *store.Store, originalID store.OriginalID, ticket store.Ticket) {
	args, err := n.gatherInputs(s)
	if err != nil {
		n.runner.fail(err)
		return
	}
	outs, err := n.spec.Kernel(args)
	if err != nil {
		n.runner.fail(errs.NewRuntimeError(n.spec.Name.String(), s.ID().String(), "kernel failed", err))
		return
	}
	if err := n.publish(s, outs); err != nil {
		n.runner.fail(err)
		return
	}
	n.execCount.Add(1)
	n.runner.dispatchLabels(n.spec.OutputLabels, store.NewMessage(s, originalID, ticket))
}

func (n *node) runPredicate(s *store.Store, originalID store.OriginalID, ticket store.Ticket) {
	args, err := n.gatherInputs(s)
	if err != nil {
		n.runner.fail(err)
		return
	}
	outs, err := n.spec.Kernel(args)
	if err != nil {
		n.runner.fail(errs.NewRuntimeError(n.spec.Name.String(), s.ID().String(), "predicate failed", err))
		return
	}
	if err := n.publish(s, outs); err != nil {
		n.runner.fail(err)
		return
	}
	n.execCount.Add(1)
	n.runner.dispatchLabels(n.spec.OutputLabels, store.NewMessage(s, originalID, ticket))
}

func (n *node) runObserver(s *store.Store) {
	args, err := n.gatherInputs(s)
	if err != nil {
		n.runner.fail(err)
		return
	}
	if _, err := n.spec.Kernel(args); err != nil {
		n.runner.fail(errs.NewRuntimeError(n.spec.Name.String(), s.ID().String(), "observer failed", err))
		return
	}
	n.execCount.Add(1)
}

func (n *node) publish(s *store.Store, outs []any) error {
	for i, label := range n.spec.OutputLabels {
		if i >= len(outs) {
			break
		}
		if err := s.Put(label, outs[i]); err != nil {
			return errs.NewRuntimeError(n.spec.Name.String(), s.ID().String(), "cannot publish output "+label, err)
		}
	}
	return nil
}
