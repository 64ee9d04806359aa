package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Framework-R-D/meld/internal/levelid"
	"github.com/Framework-R-D/meld/internal/store"
)

func TestDriver_Next_YieldsEachStoreInOrder(t *testing.T) {
	d := New(func(ctx context.Context, y *Yielder) error {
		job := store.New(levelid.Root(), nil, "test")
		for i := 0; i < 3; i++ {
			if err := y.Yield(ctx, job.NewChild(i, "event", "test")); err != nil {
				return err
			}
		}
		return nil
	})

	ctx := context.Background()
	var seen []int
	for {
		s, ok := d.Next(ctx)
		if !ok {
			break
		}
		seen = append(seen, s.ID().Number())
	}

	require.NoError(t, d.Err())
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestDriver_Next_ReportsProducerError(t *testing.T) {
	boom := errors.New("producer failed")
	d := New(func(ctx context.Context, y *Yielder) error {
		return boom
	})

	_, ok := d.Next(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, d.Err(), boom)
}

func TestDriver_Stop_ReleasesABlockedYield(t *testing.T) {
	released := make(chan error, 1)
	d := New(func(ctx context.Context, y *Yielder) error {
		job := store.New(levelid.Root(), nil, "test")
		err := y.Yield(ctx, job.NewChild(0, "event", "test"))
		released <- err
		return err
	})

	_, ok := d.Next(context.Background())
	require.True(t, ok, "first yield must be delivered before Stop")

	d.Stop()

	select {
	case err := <-released:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("producer's blocked Yield was never released by Stop")
	}
}

func TestDriver_Next_ContextCancellationStopsDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := New(func(ctx context.Context, y *Yielder) error {
		job := store.New(levelid.Root(), nil, "test")
		return y.Yield(ctx, job.NewChild(0, "event", "test"))
	})
	cancel()

	_, ok := d.Next(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, d.Err(), context.Canceled)
}
