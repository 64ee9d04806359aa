package engine

import "github.com/Framework-R-D/meld/internal/graph"

// wireGraph materializes a runtime node per spec.
func wireGraph(g *graph.Graph, runner *Runner) map[graph.QualifiedName]*node {
	nodes := make(map[graph.QualifiedName]*node, len(g.Specs()))
	for _, spec := range g.Specs() {
		nodes[spec.Name] = newNode(spec, runner)
	}
	return nodes
}
