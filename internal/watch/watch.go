// Package watch supports the watch command: it waits for the feed to come
// up, adapts the feed's committed model state to the tile tree geometry
// interface, and renders the event stream.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/tessera3d/tessera/pkg/changefeed"
	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/geometry"
	"github.com/tessera3d/tessera/pkg/tiletree"
)

// WaitForFeed pings the feed until it answers or the timeout lapses.
// Retries every 200ms.
func WaitForFeed(ctx context.Context, client *changefeed.Client, timeout time.Duration) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		if err := client.Ping(ctx); err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-timeoutCh:
			return fmt.Errorf("timeout waiting for feed after %v", timeout)

		case <-ticker.C:
		}
	}
}

// FeedGeometry adapts the feed's committed model state to the tile tree's
// geometry interface. The feed records model ranges but no per-element
// geometry, so element ranges are always unknown.
//
// The context is pinned at construction: tile trees query geometry
// synchronously from the monitor goroutine, which carries no context.
type FeedGeometry struct {
	ctx      context.Context
	feed     *changefeed.Client
	model    changeset.ModelID
	fallback geometry.Range3
}

// NewFeedGeometry builds the adapter for one model. The fallback range is
// served while the feed has no committed range recorded, typically the
// extent from tessera.yml.
func NewFeedGeometry(ctx context.Context, feed *changefeed.Client, model changeset.ModelID, fallback geometry.Range3) *FeedGeometry {
	return &FeedGeometry{ctx: ctx, feed: feed, model: model, fallback: fallback}
}

// ModelRange returns the feed's committed range for the model, or the
// fallback when none is recorded yet.
func (g *FeedGeometry) ModelRange() (geometry.Range3, error) {
	r, err := g.feed.ModelRange(g.ctx, g.model)
	if changefeed.IsNotFound(err) {
		return g.fallback, nil
	}
	if err != nil {
		return geometry.Range3{}, fmt.Errorf("failed to read model range: %w", err)
	}
	return r, nil
}

// ElementRange always reports unknown.
func (g *FeedGeometry) ElementRange(changeset.ElementID) (*geometry.Range3, error) {
	return nil, nil
}

type nullGraphic struct{}

func (nullGraphic) Dispose() {}

// NullSource satisfies tile content loading for trees that track state
// without rendering anything, which is all the watch command needs.
type NullSource struct{}

// LoadTileContent returns an empty renderable.
func (NullSource) LoadTileContent(tiletree.TileID) (*tiletree.TileContent, error) {
	return &tiletree.TileContent{Graphic: nullGraphic{}, ContentRange: geometry.EmptyRange3()}, nil
}

// LoadElementGraphic returns an empty renderable.
func (NullSource) LoadElementGraphic(changeset.ElementID, geometry.Range3) (tiletree.Graphic, error) {
	return nullGraphic{}, nil
}
