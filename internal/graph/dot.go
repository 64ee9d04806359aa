package graph

import (
	"fmt"
	"io"
)

// colorFor returns the Graphviz fill color used for each node kind, purely
// cosmetic.
func colorFor(k Kind) string {
	switch k {
	case KindTransform:
		return "lightblue"
	case KindPredicate:
		return "khaki"
	case KindObserver:
		return "lightgray"
	case KindFold:
		return "lightgreen"
	case KindUnfold:
		return "salmon"
	case KindSink:
		return "plum"
	default:
		return "white"
	}
}

// WriteDot renders the graph as a Graphviz description, nodes labeled by
// qualified name and colored by kind, edges labeled by the product label
// that mediates them.
func (g *Graph) WriteDot(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph meld {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "  rankdir=LR;"); err != nil {
		return err
	}

	for _, spec := range g.specs {
		_, err := fmt.Fprintf(w, "  %q [label=%q style=filled fillcolor=%q shape=box];\n",
			spec.Name.String(), fmt.Sprintf("%s\\n(%s)", spec.Name.String(), spec.Kind.String()), colorFor(spec.Kind))
		if err != nil {
			return err
		}
	}

	for _, e := range deriveEdges(g.specs) {
		if _, err := fmt.Fprintf(w, "  %q -> %q [label=%q];\n", e.Producer.String(), e.Consumer.String(), e.Label); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}
