// Package plugin defines the registration contract the core requires from
// its external collaborators: a source factory and a module factory, plus
// the minimal registry a front-end would use to look them up by name. The
// core never loads a plugin itself; it only requires these shapes.
package plugin

import (
	"context"

	"github.com/Framework-R-D/meld/internal/config"
	"github.com/Framework-R-D/meld/internal/source"
)

// Source is the contract a source plugin's constructed instance fulfills:
// the producer body a Driver runs, written in the suspend-on-yield style.
type Source interface {
	// Produce runs the producer body, calling y.Yield for every store it
	// emits, until it returns or fails.
	Produce(ctx context.Context, y *source.Yielder) error
}

// NewDriver wraps a constructed Source in a Driver ready to hand to a
// graph runner.
func NewDriver(s Source) *source.Driver {
	return source.New(s.Produce)
}

// SourceFactory builds a Source from plugin configuration.
type SourceFactory func(cfg config.Config) (Source, error)

// ModuleFactory performs registration calls (with/make/...) against a
// builder using the given configuration. Typed as `any` to avoid an import
// cycle with graph, which module plugins depend on; in practice builder is
// always a *graph.Builder.
type ModuleFactory func(builder any, cfg config.Config) error

// Registry is the minimal plugin lookup table an excluded CLI front-end
// would use: name to factory, for both kinds. The core ships the contract
// types; populating and consulting a Registry is the front-end's job.
type Registry struct {
	sources map[string]SourceFactory
	modules map[string]ModuleFactory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]SourceFactory),
		modules: make(map[string]ModuleFactory),
	}
}

// RegisterSource adds a source factory under name.
func (r *Registry) RegisterSource(name string, factory SourceFactory) {
	r.sources[name] = factory
}

// RegisterModule adds a module factory under name.
func (r *Registry) RegisterModule(name string, factory ModuleFactory) {
	r.modules[name] = factory
}

// Source looks up a source factory by name.
func (r *Registry) Source(name string) (SourceFactory, bool) {
	f, ok := r.sources[name]
	return f, ok
}

// Module looks up a module factory by name.
func (r *Registry) Module(name string) (ModuleFactory, bool) {
	f, ok := r.modules[name]
	return f, ok
}
