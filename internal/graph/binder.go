package graph

// Binder is returned by Builder.With and chains the finalizer calls that
// turn a freshly reserved catalog slot into a concrete node kind
// (transform/observe/filter/fold/unfold/output_with), each call returning
// the Binder itself.
type Binder struct {
	catalog *Catalog
	spec    *NodeSpec
}

// When gates this node's execution on the listed predicates (logical AND):
// the scheduler only dispatches once every predicate has evaluated true for
// the same original id.
func (b *Binder) When(preds ...QualifiedName) *Binder {
	b.spec.Predicates = append(b.spec.Predicates, preds...)
	return b
}

// Transform declares this node a transform consuming inLabels.
func (b *Binder) Transform(inLabels ...string) *Binder {
	b.spec.Kind = KindTransform
	b.spec.InputLabels = inLabels
	return b
}

// To declares the output labels a transform or fold publishes under.
func (b *Binder) To(outLabels ...string) *Binder {
	b.spec.OutputLabels = outLabels
	return b
}

// Observe declares this node a read-only observer consuming inLabels.
func (b *Binder) Observe(inLabels ...string) *Binder {
	b.spec.Kind = KindObserver
	b.spec.InputLabels = inLabels
	return b
}

// Filter declares this node a predicate consuming inLabels; its single
// boolean output is published under its own qualified name.
func (b *Binder) Filter(inLabels ...string) *Binder {
	b.spec.Kind = KindPredicate
	b.spec.InputLabels = inLabels
	b.spec.OutputLabels = []string{b.spec.Name.String()}
	return b
}

// OutputWith declares this node an output sink: an observer whose only
// effect is a user method call, consuming inLabels.
func (b *Binder) OutputWith(inLabels ...string) *Binder {
	b.spec.Kind = KindSink
	b.spec.InputLabels = inLabels
	return b
}

// Fold declares this node a fold accumulating inLabel.
func (b *Binder) Fold(inLabel string) *Binder {
	b.spec.Kind = KindFold
	b.spec.InputLabels = []string{inLabel}
	return b
}

// PartitionedBy declares the level at which a fold accumulates. It has no
// effect on other node kinds, which fire once per arriving message.
func (b *Binder) PartitionedBy(level string) *Binder {
	b.spec.LevelScope = level
	return b
}

// InitializedWith supplies the fold's accumulator constructor and the
// arguments passed to it each time a new partition is seen.
func (b *Binder) InitializedWith(init func(args []any) (any, error), args ...any) *Binder {
	b.spec.FoldInit = init
	b.spec.FoldInitArgs = args
	return b
}

// WithSend supplies the conversion from a concurrency-safe accumulator to
// its published result form. Optional: when absent the accumulator itself
// is published as-is.
func (b *Binder) WithSend(send func(accum any) (any, error)) *Binder {
	b.spec.FoldSend = send
	return b
}

// Unfold declares this node an unfold constructing its stateful object from
// keyLabel.
func (b *Binder) Unfold(keyLabel string) *Binder {
	b.spec.Kind = KindUnfold
	b.spec.UnfoldKeyLabel = keyLabel
	b.spec.InputLabels = []string{keyLabel}
	return b
}

// Into declares the output label each unfold iteration's chunk is published
// under.
func (b *Binder) Into(chunkLabel string) *Binder {
	b.spec.UnfoldChunkLabel = chunkLabel
	b.spec.OutputLabels = []string{chunkLabel}
	return b
}

// WithinFamily declares the level name the unfold's children are created
// at.
func (b *Binder) WithinFamily(newLevelName string) *Binder {
	b.spec.UnfoldNewLevelName = newLevelName
	return b
}

// ConstructedFrom supplies the constructor for the unfold's per-identifier
// stateful object, given the key product.
func (b *Binder) ConstructedFrom(ctor func(key any) (any, error)) *Binder {
	b.spec.UnfoldState = ctor
	return b
}

// While supplies the unfold's continuation predicate.
func (b *Binder) While(pred func(state, v any) (bool, error)) *Binder {
	b.spec.UnfoldPredicate = pred
	return b
}

// Step supplies the unfold's per-iteration operator: (state, v) -> (v',
// chunk).
func (b *Binder) Step(op func(state, v any) (v2, chunk any, err error)) *Binder {
	b.spec.UnfoldOp = op
	return b
}

// StartingFrom supplies the seed value fed to the first predicate/op call.
func (b *Binder) StartingFrom(seed any) *Binder {
	b.spec.UnfoldSeed = seed
	return b
}

// Name returns the qualified name this binder is registering.
func (b *Binder) Name() QualifiedName {
	return b.spec.Name
}
