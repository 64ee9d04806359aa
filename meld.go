// Package meld is the public facade over the hierarchical dataflow engine:
// it re-exports the graph builder, runner, store, and source types a host
// program needs, so that program never has to import the internal packages
// directly.
package meld

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/Framework-R-D/meld/internal/config"
	"github.com/Framework-R-D/meld/internal/engine"
	"github.com/Framework-R-D/meld/internal/graph"
	"github.com/Framework-R-D/meld/internal/levelid"
	"github.com/Framework-R-D/meld/internal/logging"
	"github.com/Framework-R-D/meld/internal/monitoring"
	"github.com/Framework-R-D/meld/internal/plugin"
	"github.com/Framework-R-D/meld/internal/source"
	"github.com/Framework-R-D/meld/internal/store"
)

// Builder is the declarative registration surface: With/Make plus the
// per-kind Binder chain, culminating in Build.
type Builder = graph.Builder

// Binder chains a reserved catalog slot's kind/label finalizer calls.
type Binder = graph.Binder

// Graph is a validated, ready-to-run node/edge set produced by Builder.Build.
type Graph = graph.Graph

// Kernel is the universal arity-erased node compute body shape.
type Kernel = graph.Kernel

// QualifiedName uniquely names a registered node: a plugin label plus its
// algorithm name.
type QualifiedName = graph.QualifiedName

// Concurrency is a node's declared concurrency: Serial, Unlimited, or
// Max(N).
type Concurrency = graph.Concurrency

// NewBuilder constructs an empty Builder.
func NewBuilder() *Builder { return graph.NewBuilder() }

// Make constructs a long-lived, builder-visible object.
func Make[T any](b *Builder, build func() (T, error)) (T, error) {
	return graph.Make(b, build)
}

// SerialConcurrency declares at most one in-flight kernel invocation.
func SerialConcurrency() Concurrency { return graph.SerialConcurrency() }

// UnlimitedConcurrency declares one in-flight slot per hardware thread.
func UnlimitedConcurrency() Concurrency { return graph.UnlimitedConcurrency() }

// Max declares a fixed cap of N in-flight invocations.
func Max(n int) Concurrency { return graph.Max(n) }

// Transform1, Transform2, Transform3 erase typed pure functions into
// Kernels.
func Transform1[A any](fn func(A) ([]any, error)) Kernel { return graph.Transform1(fn) }
func Transform2[A, B any](fn func(A, B) ([]any, error)) Kernel {
	return graph.Transform2(fn)
}
func Transform3[A, B, C any](fn func(A, B, C) ([]any, error)) Kernel {
	return graph.Transform3(fn)
}

// Predicate1, Predicate2 erase typed boolean tests into Kernels.
func Predicate1[A any](fn func(A) (bool, error)) Kernel { return graph.Predicate1(fn) }
func Predicate2[A, B any](fn func(A, B) (bool, error)) Kernel {
	return graph.Predicate2(fn)
}

// Observer1, Observer2 erase typed read-only side effects into Kernels.
func Observer1[A any](fn func(A) error) Kernel { return graph.Observer1(fn) }
func Observer2[A, B any](fn func(A, B) error) Kernel {
	return graph.Observer2(fn)
}

// FoldKernel1 erases a one-input accumulator mutation into a Kernel.
func FoldKernel1[Accum, A any](fn func(Accum, A) error) Kernel {
	return graph.FoldKernel1(fn)
}

// UnfoldPredicate1, UnfoldOp1, UnfoldState1 erase typed unfold continuation
// tests, iteration steps, and per-identifier constructors respectively.
func UnfoldPredicate1[State, V any](fn func(State, V) (bool, error)) func(state, v any) (bool, error) {
	return graph.UnfoldPredicate1(fn)
}
func UnfoldOp1[State, V, Chunk any](fn func(State, V) (V, Chunk, error)) func(state, v any) (any, any, error) {
	return graph.UnfoldOp1[State, V, Chunk](fn)
}
func UnfoldState1[Key, State any](fn func(Key) (State, error)) func(key any) (any, error) {
	return graph.UnfoldState1(fn)
}

// NewLogger builds a structured logger writing to w at the given level.
func NewLogger(w io.Writer, level zerolog.Level) zerolog.Logger { return logging.New(w, level) }

// ConsoleLogger returns a human-readable, color-capable logger over
// stderr, suitable for examples and local runs.
func ConsoleLogger(level zerolog.Level) zerolog.Logger { return logging.Console(level) }

// Runner drives a built Graph against a Driver to quiescence.
type Runner = engine.Runner

// RunnerOption configures a Runner at construction.
type RunnerOption = engine.Option

// Report is the result of a completed Execute call.
type Report = engine.Report

// ExecutionObserver receives node-level lifecycle notifications.
type ExecutionObserver = engine.ExecutionObserver

// NewRunner builds a Runner for g.
func NewRunner(g *Graph, opts ...RunnerOption) *Runner { return engine.NewRunner(g, opts...) }

// WithLogger, WithTracer, WithMaxAllowedParallelism, WithObserver configure
// a Runner at construction time.
var (
	WithLogger               = engine.WithLogger
	WithTracer               = engine.WithTracer
	WithMaxAllowedParallelism = engine.WithMaxAllowedParallelism
	WithObserver             = engine.WithObserver
)

// ID is the immutable hierarchical identifier every Store is keyed by.
type ID = levelid.ID

// RootID returns the identifier for the job level.
func RootID() ID { return levelid.Root() }

// Store is a node in the context tree holding typed products.
type Store = store.Store

// NewStore constructs a non-flush store at id, owned by parent, tagged with
// the name of whoever created it.
func NewStore(id ID, parent *Store, sourceTag string) *Store {
	return store.New(id, parent, sourceTag)
}

// NewFlush constructs a flush token closing the partition named by id.
func NewFlush(id ID, parent *Store, sourceTag string, expectedChildren int) *Store {
	return store.NewFlush(id, parent, sourceTag, expectedChildren)
}

// Producer is user code written in the iterator-like style a Driver runs.
type Producer = source.Producer

// Yielder is the handle a Producer calls Yield on.
type Yielder = source.Yielder

// Driver runs a single Producer and exposes its yielded Stores one at a
// time to a Runner.
type Driver = source.Driver

// NewDriver wraps producer in a Driver.
func NewDriver(producer Producer) *Driver { return source.New(producer) }

// Config is an opaque bag of plugin-supplied options.
type Config = config.Config

// Document is the top-level configuration shape: a source, zero or more
// modules, and an optional parallelism cap.
type Document = config.Document

// DecodeConfig parses a JSON configuration document.
func DecodeConfig(data []byte) (Document, error) { return config.Decode(data) }

// NewConfig wraps an already-decoded options map as a Config.
func NewConfig(raw map[string]any) Config { return config.New(raw) }

// GetConfig decodes the value under key into T, returning a ConfigError
// when key is absent or cannot be coerced.
func GetConfig[T any](c Config, plugin, key string) (T, error) {
	return config.Get[T](c, plugin, key)
}

// GetConfigOr is GetConfig with a fallback value when key is absent.
func GetConfigOr[T any](c Config, plugin, key string, fallback T) (T, error) {
	return config.GetOr(c, plugin, key, fallback)
}

// Source is the contract a source plugin's constructed instance fulfills:
// the producer body a Driver runs.
type Source = plugin.Source

// NewSourceDriver wraps a plugin-constructed Source in a Driver.
func NewSourceDriver(s Source) *Driver { return plugin.NewDriver(s) }

// SourceFactory builds a source plugin instance from its configuration.
type SourceFactory = plugin.SourceFactory

// ModuleFactory performs registration calls against a *Builder using the
// given configuration.
type ModuleFactory = plugin.ModuleFactory

// PluginRegistry is the minimal name-to-factory lookup table a front-end
// populates before evaluating a configuration document.
type PluginRegistry = plugin.Registry

// NewPluginRegistry builds an empty PluginRegistry.
func NewPluginRegistry() *PluginRegistry { return plugin.NewRegistry() }

// LiveObserver broadcasts Runner lifecycle notifications to websocket
// clients subscribed through a Hub.
type LiveObserver = monitoring.LiveObserver

// MonitoringHub manages websocket client connections for a LiveObserver.
type MonitoringHub = monitoring.Hub

// NewMonitoringHub constructs a MonitoringHub; call Run on it in its own
// goroutine before serving any connections.
func NewMonitoringHub(logger zerolog.Logger) *MonitoringHub { return monitoring.NewHub(logger) }

// NewLiveObserver wraps hub as a Runner-attachable ExecutionObserver.
func NewLiveObserver(hub *MonitoringHub) *LiveObserver { return monitoring.NewLiveObserver(hub) }

// NewMonitoringHandler builds an http.Handler upgrading requests to
// websocket connections registered against hub.
func NewMonitoringHandler(hub *MonitoringHub, logger zerolog.Logger) *monitoring.Handler {
	return monitoring.NewHandler(hub, logger)
}

// Context and Background are re-exported purely so callers driving a
// Runner need not import "context" themselves for the common case.
type Context = context.Context

var Background = context.Background
