package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Framework-R-D/meld/internal/graph"
	"github.com/Framework-R-D/meld/internal/levelid"
	"github.com/Framework-R-D/meld/internal/source"
	"github.com/Framework-R-D/meld/internal/store"
)

func TestRunner_Execute_TransformThenObserverSeesDoubledValue(t *testing.T) {
	var observed []int

	b := graph.NewBuilder()
	double := graph.Transform1(func(n int) ([]any, error) { return []any{n * 2}, nil })
	b.With("p", "double", double, graph.SerialConcurrency()).Transform("number").To("doubled")
	record := graph.Observer1(func(n int) error { observed = append(observed, n); return nil })
	b.With("p", "record", record, graph.SerialConcurrency()).Observe("doubled")

	g, err := b.Build()
	require.NoError(t, err)

	runner := NewRunner(g)
	driver := source.New(func(ctx context.Context, y *source.Yielder) error {
		job := store.New(levelid.Root(), nil, "test")
		for i := 0; i < 3; i++ {
			event := job.NewChild(i, "event", "test")
			if err := event.Put("number", i); err != nil {
				return err
			}
			if err := y.Yield(ctx, event); err != nil {
				return err
			}
		}
		return nil
	})

	report := runner.Execute(context.Background(), driver)

	require.NoError(t, report.Err)
	assert.Equal(t, uint64(3), report.Counts["p/double"])
	assert.Equal(t, uint64(3), report.Counts["p/record"])
	assert.ElementsMatch(t, []int{0, 2, 4}, observed)
}

func TestRunner_Execute_PredicateGatesObserver(t *testing.T) {
	var observed []int

	b := graph.NewBuilder()
	isEven := graph.Predicate1(func(n int) (bool, error) { return n%2 == 0, nil })
	evenBinder := b.With("p", "is_even", isEven, graph.SerialConcurrency()).Filter("number")
	record := graph.Observer1(func(n int) error { observed = append(observed, n); return nil })
	b.With("p", "record", record, graph.SerialConcurrency()).When(evenBinder.Name()).Observe("number")

	g, err := b.Build()
	require.NoError(t, err)

	runner := NewRunner(g)
	driver := source.New(func(ctx context.Context, y *source.Yielder) error {
		job := store.New(levelid.Root(), nil, "test")
		for i := 0; i < 5; i++ {
			event := job.NewChild(i, "event", "test")
			if err := event.Put("number", i); err != nil {
				return err
			}
			if err := y.Yield(ctx, event); err != nil {
				return err
			}
		}
		return nil
	})

	report := runner.Execute(context.Background(), driver)

	require.NoError(t, report.Err)
	assert.ElementsMatch(t, []int{0, 2, 4}, observed)
	assert.Equal(t, uint64(5), report.Counts["p/is_even"])
	assert.Equal(t, uint64(3), report.Counts["p/record"])
}

func TestRunner_Execute_FoldCommitsOnFlush(t *testing.T) {
	var sum int

	b := graph.NewBuilder()
	add := graph.FoldKernel1[*int, int](func(acc *int, v int) error { *acc += v; return nil })
	b.With("p", "sum", add, graph.SerialConcurrency()).
		Fold("number").
		PartitionedBy("run").
		InitializedWith(func(args []any) (any, error) { n := 0; return &n, nil }).
		WithSend(func(accum any) (any, error) { return *accum.(*int), nil }).
		To("total")
	record := graph.Observer1(func(total int) error { sum = total; return nil })
	b.With("p", "record", record, graph.SerialConcurrency()).Observe("total")

	g, err := b.Build()
	require.NoError(t, err)

	runner := NewRunner(g)
	driver := source.New(func(ctx context.Context, y *source.Yielder) error {
		job := store.New(levelid.Root(), nil, "test")
		run := job.NewChild(0, "run", "test")
		if err := y.Yield(ctx, run); err != nil {
			return err
		}
		for i := 1; i <= 4; i++ {
			event := run.NewChild(i, "event", "test")
			if err := event.Put("number", i); err != nil {
				return err
			}
			if err := y.Yield(ctx, event); err != nil {
				return err
			}
		}
		flush := store.NewFlush(run.ID(), job, "test", 4)
		return y.Yield(ctx, flush)
	})

	report := runner.Execute(context.Background(), driver)

	require.NoError(t, report.Err)
	assert.Equal(t, 10, sum)
	assert.Equal(t, uint64(4), report.Counts["p/sum"])
}

func TestRunner_Execute_KernelErrorIsFatalAndStopsTheSource(t *testing.T) {
	b := graph.NewBuilder()
	boom := graph.Transform1(func(n int) ([]any, error) { return nil, assertErr })
	b.With("p", "boom", boom, graph.SerialConcurrency()).Transform("number").To("doubled")

	g, err := b.Build()
	require.NoError(t, err)

	runner := NewRunner(g)
	var yielded atomic.Int64
	driver := source.New(func(ctx context.Context, y *source.Yielder) error {
		job := store.New(levelid.Root(), nil, "test")
		for i := 0; i < 1000; i++ {
			event := job.NewChild(i, "event", "test")
			if err := event.Put("number", i); err != nil {
				return err
			}
			if err := y.Yield(ctx, event); err != nil {
				return err
			}
			yielded.Add(1)
		}
		return nil
	})

	report := runner.Execute(context.Background(), driver)

	assert.Error(t, report.Err)
	assert.Less(t, yielded.Load(), int64(1000), "a fatal kernel error should stop the driver before it exhausts")
}

func TestRunner_Execute_ObserverLifecycleNotificationsFire(t *testing.T) {
	rec := &recordingObserver{}

	b := graph.NewBuilder()
	identity := graph.Transform1(func(n int) ([]any, error) { return []any{n}, nil })
	b.With("p", "identity", identity, graph.SerialConcurrency()).Transform("number").To("out")

	g, err := b.Build()
	require.NoError(t, err)

	runner := NewRunner(g, WithObserver(rec))
	driver := source.New(func(ctx context.Context, y *source.Yielder) error {
		job := store.New(levelid.Root(), nil, "test")
		event := job.NewChild(0, "event", "test")
		if err := event.Put("number", 1); err != nil {
			return err
		}
		return y.Yield(ctx, event)
	})

	report := runner.Execute(context.Background(), driver)

	require.NoError(t, report.Err)
	assert.Equal(t, int64(1), rec.started.Load())
	assert.Equal(t, int64(1), rec.completed.Load())
	assert.Equal(t, int64(0), rec.failed.Load())
}

func TestRunner_Execute_ZeroInputFoldCommitsInitializerOnFlush(t *testing.T) {
	var got int

	b := graph.NewBuilder()
	add := graph.FoldKernel1[*int, int](func(acc *int, v int) error { *acc += v; return nil })
	b.With("p", "sum", add, graph.SerialConcurrency()).
		Fold("number").
		PartitionedBy("run").
		InitializedWith(func(args []any) (any, error) { n := 7; return &n, nil }).
		WithSend(func(accum any) (any, error) { return *accum.(*int), nil }).
		To("total")
	record := graph.Observer1(func(total int) error { got = total; return nil })
	b.With("p", "record", record, graph.SerialConcurrency()).Observe("total")

	g, err := b.Build()
	require.NoError(t, err)

	runner := NewRunner(g)
	driver := source.New(func(ctx context.Context, y *source.Yielder) error {
		job := store.New(levelid.Root(), nil, "test")
		if err := y.Yield(ctx, job); err != nil {
			return err
		}
		// The run level is closed without ever carrying a data store.
		flush := store.NewFlush(levelid.Root().MakeChild(0, "run"), job, "test", 0)
		return y.Yield(ctx, flush)
	})

	report := runner.Execute(context.Background(), driver)

	require.NoError(t, report.Err)
	assert.Equal(t, 7, got)
	assert.Equal(t, uint64(0), report.Counts["p/sum"])
	assert.Equal(t, uint64(1), report.Counts["p/record"])
}

func TestRunner_Execute_StoreReuseAfterFlushIsFatal(t *testing.T) {
	b := graph.NewBuilder()
	record := graph.Observer1(func(n int) error { return nil })
	b.With("p", "record", record, graph.SerialConcurrency()).Observe("number")

	g, err := b.Build()
	require.NoError(t, err)

	runner := NewRunner(g)
	driver := source.New(func(ctx context.Context, y *source.Yielder) error {
		job := store.New(levelid.Root(), nil, "test")
		run := job.NewChild(0, "run", "test")
		if err := y.Yield(ctx, run); err != nil {
			return err
		}
		if err := y.Yield(ctx, store.NewFlush(run.ID(), job, "test", 0)); err != nil {
			return err
		}
		again := job.NewChild(0, "run", "test")
		if err := again.Put("number", 1); err != nil {
			return err
		}
		err := y.Yield(ctx, again)
		// A fatal admit error stops the driver; both outcomes mean the
		// reuse was rejected before dispatch.
		if err == context.Canceled {
			return nil
		}
		return err
	})

	report := runner.Execute(context.Background(), driver)

	assert.Error(t, report.Err)
	assert.Equal(t, uint64(0), report.Counts["p/record"])
}

type recordingObserver struct {
	started   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	flushed   atomic.Int64
}

func (r *recordingObserver) OnNodeStarted(node, storeID string) { r.started.Add(1) }
func (r *recordingObserver) OnNodeCompleted(node, storeID string, d time.Duration) {
	r.completed.Add(1)
}
func (r *recordingObserver) OnNodeFailed(node, storeID string, err error) { r.failed.Add(1) }
func (r *recordingObserver) OnFlush(sourceTag, storeID string)            { r.flushed.Add(1) }
