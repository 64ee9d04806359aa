package graph

import (
	"fmt"

	"github.com/Framework-R-D/meld/internal/errs"
)

// Builder is the declarative entry point user code (or a module plugin
// factory) calls against: With/Make plus the Binder chain. It lazily
// materializes validated NodeSpecs into an engine-ready Graph at Build().
type Builder struct {
	catalog *Catalog
	made    []any
}

// NewBuilder constructs an empty builder.
func NewBuilder() *Builder {
	return &Builder{catalog: NewCatalog()}
}

// With reserves a catalog slot under (plugin, algorithm) bound to kernel at
// the given concurrency, and returns the Binder used to finalize its kind
// and labels. Registering the same qualified name twice is not rejected
// immediately; it is recorded as a registration error surfaced at Build().
func (b *Builder) With(plugin, algorithm string, kernel Kernel, concurrency Concurrency) *Binder {
	name := QualifiedName{Plugin: plugin, Algorithm: algorithm}
	spec := b.catalog.reserve(name, KindTransform)
	spec.Kernel = kernel
	spec.Concurrency = concurrency
	return &Binder{catalog: b.catalog, spec: spec}
}

// Make constructs a long-lived, framework-visible object via build and
// keeps it reachable for the builder's own lifetime. This mostly matters
// for output sinks whose constructed object a kernel closure later
// captures.
func Make[T any](b *Builder, build func() (T, error)) (T, error) {
	v, err := build()
	if err != nil {
		var zero T
		return zero, err
	}
	b.made = append(b.made, v)
	return v, nil
}

// Catalog exposes the underlying catalog, mostly for module plugin
// factories that need to inspect what's already registered.
func (b *Builder) Catalog() *Catalog {
	return b.catalog
}

// Build validates every registered spec and the edges implied by label
// producer/consumer relationships, returning a ready-to-run Graph or the
// aggregate of every registration error found.
func (b *Builder) Build() (*Graph, error) {
	if b.catalog.Errors().HasErrors() {
		return nil, b.catalog.Errors().AsError()
	}

	specs := b.catalog.All()
	validateSpecs(specs, b.catalog)
	if b.catalog.Errors().HasErrors() {
		return nil, b.catalog.Errors().AsError()
	}

	edges := deriveEdges(specs)
	if cyc := findCycle(specs, edges); cyc != "" {
		return nil, errs.NewRegistrationError(cyc, "cycle detected in graph")
	}

	return &Graph{specs: specs, edges: edges}, nil
}

func validateSpecs(specs []*NodeSpec, catalog *Catalog) {
	for _, spec := range specs {
		switch spec.Kind {
		case KindTransform:
			if spec.Kernel == nil {
				catalog.addError(spec.Name, "transform has no kernel bound")
			}
		case KindPredicate:
			if len(spec.OutputLabels) != 1 {
				catalog.addError(spec.Name, "predicate must declare exactly one output label")
			}
		case KindObserver, KindSink:
			if len(spec.OutputLabels) != 0 {
				catalog.addError(spec.Name, "observer/sink must declare no outputs")
			}
		case KindFold:
			if len(spec.OutputLabels) != 1 {
				catalog.addError(spec.Name, "fold must declare exactly one output label")
			}
			if spec.FoldInit == nil {
				catalog.addError(spec.Name, "fold has no initializer")
			}
			if spec.LevelScope == "" {
				catalog.addError(spec.Name, "fold has no partition level")
			}
		case KindUnfold:
			if spec.UnfoldChunkLabel == "" {
				catalog.addError(spec.Name, "unfold has no chunk output label")
			}
			if spec.UnfoldNewLevelName == "" {
				catalog.addError(spec.Name, "unfold has no within-family level name")
			}
			if spec.UnfoldPredicate == nil || spec.UnfoldOp == nil {
				catalog.addError(spec.Name, "unfold has no predicate/op pair")
			}
		}
		for _, pred := range spec.Predicates {
			predSpec, ok := catalog.Lookup(pred)
			if !ok {
				catalog.addError(spec.Name, fmt.Sprintf("references undeclared predicate %q", pred))
				continue
			}
			if predSpec.Kind != KindPredicate {
				catalog.addError(spec.Name, fmt.Sprintf("when() target %q is not a predicate", pred))
			}
		}
	}
}

// edge is a directed label-mediated dependency: Producer publishes Label,
// which Consumer reads.
type edge struct {
	Producer QualifiedName
	Consumer QualifiedName
	Label    string
}

func deriveEdges(specs []*NodeSpec) []edge {
	producers := make(map[string][]QualifiedName)
	for _, spec := range specs {
		for _, label := range spec.OutputLabels {
			producers[label] = append(producers[label], spec.Name)
		}
	}

	var edges []edge
	for _, spec := range specs {
		for _, label := range spec.InputLabels {
			for _, producer := range producers[label] {
				edges = append(edges, edge{Producer: producer, Consumer: spec.Name, Label: label})
			}
		}
		for _, pred := range spec.Predicates {
			edges = append(edges, edge{Producer: pred, Consumer: spec.Name, Label: pred.String()})
		}
	}
	return edges
}

func findCycle(specs []*NodeSpec, edges []edge) string {
	adjacency := make(map[QualifiedName][]QualifiedName)
	for _, e := range edges {
		adjacency[e.Producer] = append(adjacency[e.Producer], e.Consumer)
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[QualifiedName]int)

	var visit func(n QualifiedName) string
	visit = func(n QualifiedName) string {
		state[n] = visiting
		for _, next := range adjacency[n] {
			switch state[next] {
			case visiting:
				return next.String()
			case unvisited:
				if cyc := visit(next); cyc != "" {
					return cyc
				}
			}
		}
		state[n] = done
		return ""
	}

	for _, spec := range specs {
		if state[spec.Name] == unvisited {
			if cyc := visit(spec.Name); cyc != "" {
				return cyc
			}
		}
	}
	return ""
}
