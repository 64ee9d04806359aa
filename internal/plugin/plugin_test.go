package plugin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Framework-R-D/meld/internal/config"
	"github.com/Framework-R-D/meld/internal/engine"
	"github.com/Framework-R-D/meld/internal/graph"
	"github.com/Framework-R-D/meld/internal/levelid"
	"github.com/Framework-R-D/meld/internal/plugin"
	"github.com/Framework-R-D/meld/internal/source"
	"github.com/Framework-R-D/meld/internal/store"
)

// countingSource yields a configurable number of event stores, each
// carrying its index under "number".
type countingSource struct {
	events int
}

func (s *countingSource) Produce(ctx context.Context, y *source.Yielder) error {
	job := store.New(levelid.Root(), nil, "counting")
	for i := 0; i < s.events; i++ {
		event := job.NewChild(i, "event", "counting")
		if err := event.Put("number", i); err != nil {
			return err
		}
		if err := y.Yield(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func newCountingSource(cfg config.Config) (plugin.Source, error) {
	events, err := config.Get[int](cfg, "counting", "events")
	if err != nil {
		return nil, err
	}
	return &countingSource{events: events}, nil
}

func TestRegistry_FactoriesDriveARunEndToEnd(t *testing.T) {
	reg := plugin.NewRegistry()
	reg.RegisterSource("counting", newCountingSource)
	reg.RegisterModule("recorder", func(builder any, cfg config.Config) error {
		b := builder.(*graph.Builder)
		label, err := config.Get[string](cfg, "recorder", "input_label")
		if err != nil {
			return err
		}
		record := graph.Observer1(func(n int) error { return nil })
		b.With("recorder", "record", record, graph.SerialConcurrency()).Observe(label)
		return nil
	})

	srcFactory, ok := reg.Source("counting")
	require.True(t, ok)
	src, err := srcFactory(config.New(map[string]any{"events": 4}))
	require.NoError(t, err)

	b := graph.NewBuilder()
	modFactory, ok := reg.Module("recorder")
	require.True(t, ok)
	require.NoError(t, modFactory(b, config.New(map[string]any{"input_label": "number"})))

	g, err := b.Build()
	require.NoError(t, err)

	report := engine.NewRunner(g).Execute(context.Background(), plugin.NewDriver(src))

	require.NoError(t, report.Err)
	assert.Equal(t, uint64(4), report.Counts["recorder/record"])
}

func TestRegistry_SourceFactoryConfigErrorSurfaces(t *testing.T) {
	reg := plugin.NewRegistry()
	reg.RegisterSource("counting", newCountingSource)

	factory, ok := reg.Source("counting")
	require.True(t, ok)
	_, err := factory(config.New(nil))
	assert.Error(t, err)
}

func TestRegistry_UnknownNamesAreNotFound(t *testing.T) {
	reg := plugin.NewRegistry()
	_, ok := reg.Source("missing")
	assert.False(t, ok)
	_, ok = reg.Module("missing")
	assert.False(t, ok)
}
