package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Build_DuplicateQualifiedName_AggregatesRegistrationError(t *testing.T) {
	b := NewBuilder()
	noop := Observer1(func(n int) error { return nil })
	b.With("p", "n", noop, SerialConcurrency()).Observe("number")
	b.With("p", "n", noop, SerialConcurrency()).Observe("number")

	_, err := b.Build()
	assert.ErrorContains(t, err, "duplicate qualified name")
}

func TestBuilder_Build_TransformWithoutKernel_IsRejected(t *testing.T) {
	b := NewBuilder()
	spec := b.catalog.reserve(QualifiedName{Plugin: "p", Algorithm: "n"}, KindTransform)
	spec.Concurrency = SerialConcurrency()

	_, err := b.Build()
	assert.ErrorContains(t, err, "no kernel bound")
}

func TestBuilder_Build_PredicateWithoutSingleOutput_IsRejected(t *testing.T) {
	b := NewBuilder()
	pred := Predicate1(func(n int) (bool, error) { return true, nil })
	binder := b.With("p", "is_even", pred, SerialConcurrency())
	binder.spec.Kind = KindPredicate
	binder.spec.InputLabels = []string{"number"}
	// deliberately omit OutputLabels to exercise the validator

	_, err := b.Build()
	assert.ErrorContains(t, err, "exactly one output label")
}

func TestBuilder_Build_FoldWithoutPartitionLevel_IsRejected(t *testing.T) {
	b := NewBuilder()
	add := FoldKernel1[*int, int](func(acc *int, v int) error { *acc += v; return nil })
	b.With("p", "sum", add, SerialConcurrency()).
		Fold("number").
		InitializedWith(func(args []any) (any, error) { n := 0; return &n, nil }).
		To("total")

	_, err := b.Build()
	assert.ErrorContains(t, err, "no partition level")
}

func TestBuilder_Build_WhenReferencesUndeclaredPredicate_IsRejected(t *testing.T) {
	b := NewBuilder()
	obs := Observer1(func(n int) error { return nil })
	ghost := QualifiedName{Plugin: "p", Algorithm: "ghost"}
	b.With("p", "record", obs, SerialConcurrency()).When(ghost).Observe("number")

	_, err := b.Build()
	assert.ErrorContains(t, err, "undeclared predicate")
}

func TestBuilder_Build_WhenReferencesNonPredicate_IsRejected(t *testing.T) {
	b := NewBuilder()
	t1 := Transform1(func(n int) ([]any, error) { return []any{n}, nil })
	notAPredicate := b.With("p", "identity", t1, SerialConcurrency()).Transform("number").To("out")

	obs := Observer1(func(n int) error { return nil })
	b.With("p", "record", obs, SerialConcurrency()).When(notAPredicate.Name()).Observe("number")

	_, err := b.Build()
	assert.ErrorContains(t, err, "is not a predicate")
}

func TestBuilder_Build_DetectsCycle(t *testing.T) {
	b := NewBuilder()
	t1 := Transform1(func(n int) ([]any, error) { return []any{n}, nil })
	b.With("p", "a", t1, SerialConcurrency()).Transform("c").To("a_out")
	b.With("p", "b", t1, SerialConcurrency()).Transform("a_out").To("b_out")
	b.With("p", "c", t1, SerialConcurrency()).Transform("b_out").To("c")

	_, err := b.Build()
	assert.ErrorContains(t, err, "cycle detected")
}

func TestBuilder_Build_ValidGraph_Succeeds(t *testing.T) {
	b := NewBuilder()
	double := Transform1(func(n int) ([]any, error) { return []any{n * 2}, nil })
	b.With("p", "double", double, SerialConcurrency()).Transform("number").To("doubled")
	obs := Observer1(func(n int) error { return nil })
	b.With("p", "record", obs, SerialConcurrency()).Observe("doubled")

	g, err := b.Build()
	require.NoError(t, err)
	require.NotNil(t, g)

	_, ok := g.Spec(QualifiedName{Plugin: "p", Algorithm: "double"})
	assert.True(t, ok)
}
