package engine

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/Framework-R-D/meld/internal/graph"
	"github.com/Framework-R-D/meld/internal/levelid"
	"github.com/Framework-R-D/meld/internal/store"
)

func testRunner() *Runner {
	return &Runner{
		hardwareThreads: 4,
		logger:          zerolog.Nop(),
		observer:        NopObserver{},
	}
}

func TestNode_SlotFor_DataLabelAndPredicateOutputBothResolve(t *testing.T) {
	spec := &graph.NodeSpec{
		Name:        graph.QualifiedName{Plugin: "p", Algorithm: "n"},
		InputLabels: []string{"number"},
		Predicates:  []graph.QualifiedName{{Plugin: "p", Algorithm: "is_even"}},
		Concurrency: graph.SerialConcurrency(),
	}
	n := newNode(spec, testRunner())

	dataSlot, ok := n.slotFor("number")
	assert.True(t, ok)
	predSlot, ok := n.slotFor("p/is_even")
	assert.True(t, ok)
	assert.NotEqual(t, dataSlot, predSlot)

	_, ok = n.slotFor("unknown")
	assert.False(t, ok)
}

func TestNode_GatesOK_TrueWhenNoPredicatesDeclared(t *testing.T) {
	spec := &graph.NodeSpec{
		Name:        graph.QualifiedName{Plugin: "p", Algorithm: "n"},
		InputLabels: []string{"number"},
		Concurrency: graph.SerialConcurrency(),
	}
	n := newNode(spec, testRunner())
	s := store.New(levelid.Root(), nil, "test")

	assert.True(t, n.gatesOK(s))
}

func TestNode_GatesOK_FalseWhenPredicateProductMissing(t *testing.T) {
	spec := &graph.NodeSpec{
		Name:        graph.QualifiedName{Plugin: "p", Algorithm: "n"},
		Predicates:  []graph.QualifiedName{{Plugin: "p", Algorithm: "is_even"}},
		Concurrency: graph.SerialConcurrency(),
	}
	n := newNode(spec, testRunner())
	s := store.New(levelid.Root(), nil, "test")

	assert.False(t, n.gatesOK(s))
}

func TestNode_GatesOK_FalseWhenPredicateProductIsFalse(t *testing.T) {
	spec := &graph.NodeSpec{
		Name:        graph.QualifiedName{Plugin: "p", Algorithm: "n"},
		Predicates:  []graph.QualifiedName{{Plugin: "p", Algorithm: "is_even"}},
		Concurrency: graph.SerialConcurrency(),
	}
	n := newNode(spec, testRunner())
	s := store.New(levelid.Root(), nil, "test")
	require := assert.New(t)
	require.NoError(s.Put("p/is_even", false))

	assert.False(t, n.gatesOK(s))
}

func TestNode_GatesOK_TrueWhenPredicateProductIsTrueOnAncestor(t *testing.T) {
	spec := &graph.NodeSpec{
		Name:        graph.QualifiedName{Plugin: "p", Algorithm: "n"},
		Predicates:  []graph.QualifiedName{{Plugin: "p", Algorithm: "is_even"}},
		Concurrency: graph.SerialConcurrency(),
	}
	n := newNode(spec, testRunner())
	job := store.New(levelid.Root(), nil, "test")
	require := assert.New(t)
	require.NoError(job.Put("p/is_even", true))
	event := job.NewChild(0, "event", "test")

	assert.True(t, n.gatesOK(event))
}

func TestNode_Acquire_RespectsConcurrencyCap(t *testing.T) {
	spec := &graph.NodeSpec{
		Name:        graph.QualifiedName{Plugin: "p", Algorithm: "n"},
		Concurrency: graph.Max(1),
	}
	n := newNode(spec, testRunner())

	n.acquire()
	acquired := make(chan struct{})
	go func() {
		n.acquire()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block while the cap-1 slot is held")
	default:
	}

	n.release()
	<-acquired
	n.release()
}
