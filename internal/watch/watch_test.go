package watch

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera3d/tessera/pkg/changefeed"
	"github.com/tessera3d/tessera/pkg/geometry"
)

func testRange(x float32) geometry.Range3 {
	return geometry.NewRange3(geometry.V3(x, 0, 0), geometry.V3(x+1, 1, 1))
}

func TestWaitForFeed(t *testing.T) {
	ctx := context.Background()

	t.Run("returns once the feed answers", func(t *testing.T) {
		mr := miniredis.NewMiniRedis()
		require.NoError(t, mr.Start())
		t.Cleanup(mr.Close)

		client, err := changefeed.NewClient(&redis.Options{Addr: mr.Addr()}, "demo")
		require.NoError(t, err)
		t.Cleanup(func() { client.Close() })

		assert.NoError(t, WaitForFeed(ctx, client, time.Second))
	})

	t.Run("times out when the feed never answers", func(t *testing.T) {
		mr := miniredis.NewMiniRedis()
		require.NoError(t, mr.Start())
		addr := mr.Addr()
		mr.Close()

		client, err := changefeed.NewClient(&redis.Options{Addr: addr}, "demo")
		require.NoError(t, err)
		t.Cleanup(func() { client.Close() })

		err = WaitForFeed(ctx, client, 300*time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout waiting for feed")
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		mr := miniredis.NewMiniRedis()
		require.NoError(t, mr.Start())
		addr := mr.Addr()
		mr.Close()

		client, err := changefeed.NewClient(&redis.Options{Addr: addr}, "demo")
		require.NoError(t, err)
		t.Cleanup(func() { client.Close() })

		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		err = WaitForFeed(cancelCtx, client, time.Second)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFeedGeometry(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	client, err := changefeed.NewClient(&redis.Options{Addr: mr.Addr()}, "demo")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	fallback := testRange(0)
	geom := NewFeedGeometry(ctx, client, "0x1c", fallback)

	t.Run("serves the fallback before the feed records a range", func(t *testing.T) {
		got, err := geom.ModelRange()
		require.NoError(t, err)
		assert.True(t, got.ApproxEqual(fallback, 1e-6))
	})

	t.Run("serves the feed's committed range once recorded", func(t *testing.T) {
		want := testRange(5)
		require.NoError(t, client.SetModelRange(ctx, "0x1c", want))

		got, err := geom.ModelRange()
		require.NoError(t, err)
		assert.True(t, got.ApproxEqual(want, 1e-6))
	})

	t.Run("element ranges are unknown", func(t *testing.T) {
		r, err := geom.ElementRange("0x100")
		require.NoError(t, err)
		assert.Nil(t, r)
	})

	t.Run("wraps feed errors", func(t *testing.T) {
		mr.Close()
		_, err := geom.ModelRange()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read model range")
	})
}
