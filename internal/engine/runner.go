// Package engine implements the dataflow scheduler: the multiplexer, join,
// the five node kinds, flush-token propagation, and the GraphRunner that
// drives a graph.Graph to quiescence under each node's declared
// concurrency.
package engine

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Framework-R-D/meld/internal/errs"
	"github.com/Framework-R-D/meld/internal/graph"
	"github.com/Framework-R-D/meld/internal/source"
	"github.com/Framework-R-D/meld/internal/store"
	"github.com/Framework-R-D/meld/internal/tracing"
)

// Runner drives a built graph.Graph against a source.Driver to quiescence,
// dispatching messages through a lock-free multiplexer/join/fold/unfold
// pipeline under each node's declared concurrency, and reports per-node
// execution counts.
type Runner struct {
	g     *graph.Graph
	nodes map[graph.QualifiedName]*node
	mux   *multiplexer
	cache *store.Cache

	hardwareThreads int
	globalSem       chan struct{}
	globalWG        sync.WaitGroup

	counter store.Counter
	counterMu sync.Mutex

	fatal    atomic.Bool
	failOnce sync.Once
	firstErr error

	logger   zerolog.Logger
	tracer   tracing.Tracer
	observer ExecutionObserver
}

// Option configures a Runner at construction.
type Option func(*Runner)

// WithLogger installs the ambient logger every dispatch and failure path
// writes through.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithTracer installs the tracer spans are started against; omitted,
// tracing.Noop() is used.
func WithTracer(tracer tracing.Tracer) Option {
	return func(r *Runner) { r.tracer = tracer }
}

// WithObserver installs a lifecycle observer notified of every node start,
// completion, failure, and flush broadcast; omitted, NopObserver discards
// every notification.
func WithObserver(observer ExecutionObserver) Option {
	return func(r *Runner) { r.observer = observer }
}

// WithMaxAllowedParallelism caps the total number of in-flight kernel
// invocations across the whole graph, mirroring the external document's
// max_allowed_parallelism. n <= 0 resolves to runtime.NumCPU().
func WithMaxAllowedParallelism(n int) Option {
	return func(r *Runner) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		r.globalSem = make(chan struct{}, n)
	}
}

// NewRunner builds a Runner for g.
func NewRunner(g *graph.Graph, opts ...Option) *Runner {
	r := &Runner{
		g:               g,
		cache:           store.NewCache(),
		hardwareThreads: runtime.NumCPU(),
		logger:          zerolog.Nop(),
		tracer:          tracing.Noop(),
		observer:        NopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.globalSem == nil {
		r.globalSem = make(chan struct{}, r.hardwareThreads)
	}
	r.nodes = wireGraph(g, r)
	r.mux = newMultiplexer(r.nodes)
	return r
}

func (r *Runner) isFatal() bool {
	return r.fatal.Load()
}

func (r *Runner) fail(err error) {
	r.failOnce.Do(func() {
		r.firstErr = err
		r.fatal.Store(true)
		r.logger.Error().Err(err).Msg("fatal error, draining")
	})
}

func (r *Runner) nextEvent() store.Ticket {
	r.counterMu.Lock()
	defer r.counterMu.Unlock()
	return r.counter.Next()
}

// admit runs a source-emitted store through the cache so that independent
// producers of the same identifier agree on one canonical *Store. A data
// store is canonicalized under its own identifier; re-emission after the
// identifier's flush is a logic error. A flush store is not cached itself,
// but the identifier it closes is pinned to a canonical data store first
// (creating an empty stand-in for a level that never carried one, so a
// zero-input fold still has a store to commit into) and then marked
// flushed.
func (r *Runner) admit(s *store.Store) (*store.Store, error) {
	if s.IsFlush() {
		if _, err := r.cache.Canonicalize(s.ID(), func() *store.Store {
			return store.New(s.ID(), s.Parent(), s.SourceTag())
		}); err != nil {
			return nil, err
		}
		r.cache.MarkFlushed(s.ID())
		return s, nil
	}
	return r.cache.Canonicalize(s.ID(), func() *store.Store { return s })
}

// partitionStore resolves the canonical data store behind a flush token's
// identifier: the store a fold closed by that flush publishes its result
// into. Execute pins one into the cache before broadcasting the flush, so
// the lookup only misses for flushes a node emitted directly (an unfold's
// own completion), whose identifier was canonicalized when its data store
// first entered the graph.
func (r *Runner) partitionStore(flush *store.Store) *store.Store {
	if cached, ok := r.cache.Lookup(flush.ID()); ok {
		return cached
	}
	canon, err := r.cache.Canonicalize(flush.ID(), func() *store.Store {
		return store.New(flush.ID(), flush.Parent(), flush.SourceTag())
	})
	if err != nil {
		return flush
	}
	return canon
}

// dispatchLabels fans msg out to every node subscribed to any of labels.
// The caller's own goroutine returns immediately; each delivery runs on its
// own goroutine gated first by the runner's global parallelism cap and then,
// when it reaches the kernel, by the node's concurrency semaphore.
func (r *Runner) dispatchLabels(labels []string, msg store.Message) {
	for _, label := range labels {
		for _, n := range r.mux.subscribers(label) {
			r.spawn(func() { n.handleArrival(label, msg) })
		}
	}
}

// dispatchFlush broadcasts msg to every node in the graph; only fold nodes
// act on it (see node.deliverFlush).
func (r *Runner) dispatchFlush(msg store.Message) {
	r.observer.OnFlush(msg.Store.SourceTag(), msg.Store.ID().String())
	for _, n := range r.mux.all {
		r.spawn(func() { n.deliverFlush(msg) })
	}
}

func (r *Runner) spawn(work func()) {
	r.globalWG.Add(1)
	go func() {
		defer r.globalWG.Done()
		if r.isFatal() {
			return
		}
		r.globalSem <- struct{}{}
		defer func() { <-r.globalSem }()
		work()
	}()
}

// Report is the result of a completed Execute call: one invocation count
// per registered qualified name.
type Report struct {
	Counts map[string]uint64
	Err    error
}

// Execute drains driver into the graph until it is exhausted, then waits
// for every dispatched message to finish propagating, and returns a
// Report. A fatal error anywhere in the graph (or from the driver itself)
// is returned verbatim; per spec this is the only way Execute returns an
// error.
func (r *Runner) Execute(ctx context.Context, driver *source.Driver) *Report {
	ctx, span := tracing.StartSpan(ctx, r.tracer, "meld.Execute")
	defer span.End()

	for {
		if r.isFatal() {
			driver.Stop()
			break
		}
		s, ok := driver.Next(ctx)
		if !ok {
			if err := driver.Err(); err != nil {
				r.fail(errs.NewRuntimeError("source", "", "source driver failed", err))
			}
			break
		}
		canon, err := r.admit(s)
		if err != nil {
			r.fail(err)
			continue
		}
		event := r.nextEvent()
		msg := store.NewMessage(canon, store.OriginalID(event), event)
		if canon.IsFlush() {
			r.dispatchFlush(msg)
		} else {
			r.dispatchLabels(canon.Labels(), msg)
		}
	}

	r.globalWG.Wait()

	report := &Report{Counts: make(map[string]uint64, len(r.nodes)), Err: r.firstErr}
	for name, n := range r.nodes {
		report.Counts[name.String()] = n.execCount.Load()
	}
	return report
}
