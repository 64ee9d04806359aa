package engine

import "github.com/Framework-R-D/meld/internal/graph"

// multiplexer is the lookup table from product label to the nodes
// subscribed to it, covering both plain data-input subscriptions and the
// implicit subscription a gated consumer holds on each of its predicates'
// own qualified-name labels. A pure label index suffices: level-scope
// matching for a fold is performed by the node itself against the
// arriving store's ancestor chain, since a label resolves to a single
// scope per node.
type multiplexer struct {
	byLabel map[string][]*node
	all     []*node
}

func newMultiplexer(nodes map[graph.QualifiedName]*node) *multiplexer {
	m := &multiplexer{byLabel: make(map[string][]*node)}
	for _, n := range nodes {
		m.all = append(m.all, n)
		for label := range n.slots {
			m.byLabel[label] = append(m.byLabel[label], n)
		}
		for pred := range n.predSlots {
			m.byLabel[pred.String()] = append(m.byLabel[pred.String()], n)
		}
	}
	return m
}

// subscribers returns every node with a slot for label.
func (m *multiplexer) subscribers(label string) []*node {
	return m.byLabel[label]
}
