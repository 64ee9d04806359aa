package graph

// Graph is the validated, immutable result of Builder.Build(): every
// registered NodeSpec plus the label-mediated edges between them, ready for
// the scheduler to materialize into running nodes.
type Graph struct {
	specs []*NodeSpec
	edges []edge
}

// Specs returns every node spec in registration order.
func (g *Graph) Specs() []*NodeSpec {
	return g.specs
}

// Spec looks up a single node spec by qualified name.
func (g *Graph) Spec(name QualifiedName) (*NodeSpec, bool) {
	for _, spec := range g.specs {
		if spec.Name == name {
			return spec, true
		}
	}
	return nil, false
}

// Consumers returns every node that reads label, in registration order.
func (g *Graph) Consumers(label string) []*NodeSpec {
	var out []*NodeSpec
	for _, spec := range g.specs {
		for _, in := range spec.InputLabels {
			if in == label {
				out = append(out, spec)
				break
			}
		}
	}
	return out
}
