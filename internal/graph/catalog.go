package graph

import "github.com/Framework-R-D/meld/internal/errs"

// Kind tags which of the node shapes a NodeSpec describes.
type Kind int

const (
	// KindTransform computes zero or more outputs from its inputs.
	KindTransform Kind = iota
	// KindPredicate computes a single boolean used to gate other nodes.
	KindPredicate
	// KindObserver performs a read-only side effect, no outputs.
	KindObserver
	// KindFold accumulates across a partition, committing on flush.
	KindFold
	// KindUnfold expands one identifier into a new level of children.
	KindUnfold
	// KindSink is an observer whose only side effect is a user method call.
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindTransform:
		return "transform"
	case KindPredicate:
		return "predicate"
	case KindObserver:
		return "observer"
	case KindFold:
		return "fold"
	case KindUnfold:
		return "unfold"
	case KindSink:
		return "sink"
	default:
		return "unknown"
	}
}

// NodeSpec is the catalog's internal record for one registered node: the
// declarative facts gathered from With/Binder calls, validated and
// materialized into an engine node at Build time.
type NodeSpec struct {
	Name        QualifiedName
	Kind        Kind
	Concurrency Concurrency
	Predicates  []QualifiedName
	InputLabels []string
	OutputLabels []string

	// LevelScope is the partition level a fold accumulates at. Only fold
	// nodes read it; every other kind fires at whatever level its inputs
	// arrive at, whether or not LevelScope is set.
	LevelScope string

	// FoldInitArgs are the constructor arguments passed to the fold's
	// accumulator initializer.
	FoldInitArgs []any
	// FoldInit lazily builds a fresh accumulator for a new partition.
	FoldInit func(initArgs []any) (any, error)
	// FoldSend optionally converts a concurrency-safe accumulator to its
	// final result form before it is published; nil means publish the
	// accumulator itself.
	FoldSend func(accum any) (any, error)

	// UnfoldKeyLabel names the input label the unfold's stateful object is
	// constructed from on first arrival.
	UnfoldKeyLabel string
	// UnfoldChunkLabel names the output label each emitted chunk is
	// published under.
	UnfoldChunkLabel string
	// UnfoldNewLevelName names the level the unfold's children are created
	// at.
	UnfoldNewLevelName string
	// UnfoldState lazily constructs the per-identifier stateful object from
	// the key product.
	UnfoldState func(key any) (any, error)
	// UnfoldPredicate reports whether another iteration should run.
	UnfoldPredicate func(state, v any) (bool, error)
	// UnfoldOp performs one iteration: (state, v) -> (v', chunk).
	UnfoldOp func(state, v any) (v2, chunk any, err error)
	// UnfoldSeed is the initial value fed to the first predicate/op call.
	UnfoldSeed any

	Kernel Kernel
}

// Catalog owns the registered NodeSpecs, keyed by qualified name, plus the
// shared aggregate of registration errors discovered along the way. An
// order slice alongside the map keeps iteration in registration order.
type Catalog struct {
	specs   map[QualifiedName]*NodeSpec
	order   []QualifiedName
	errors  errs.RegistrationErrors
}

// NewCatalog builds an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{specs: make(map[QualifiedName]*NodeSpec)}
}

// reserve creates the registrar slot for name, recording a registration
// error (rather than failing fast) if name is already taken. Returns the
// new (or pre-existing) slot either way so callers can keep chaining.
func (c *Catalog) reserve(name QualifiedName, kind Kind) *NodeSpec {
	if existing, ok := c.specs[name]; ok {
		c.errors.Add(errs.NewRegistrationError(name.String(), "duplicate qualified name"))
		return existing
	}
	spec := &NodeSpec{Name: name, Kind: kind}
	c.specs[name] = spec
	c.order = append(c.order, name)
	return spec
}

// Lookup returns the spec registered under name.
func (c *Catalog) Lookup(name QualifiedName) (*NodeSpec, bool) {
	s, ok := c.specs[name]
	return s, ok
}

// All returns every registered spec in registration order.
func (c *Catalog) All() []*NodeSpec {
	out := make([]*NodeSpec, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.specs[name])
	}
	return out
}

// Errors returns the aggregated registration errors found so far.
func (c *Catalog) Errors() *errs.RegistrationErrors {
	return &c.errors
}

func (c *Catalog) addError(name QualifiedName, message string) {
	c.errors.Add(errs.NewRegistrationError(name.String(), message))
}
