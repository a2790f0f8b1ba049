package tiletree

import (
	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/geometry"
)

// Graphic is an opaque renderer resource produced by a ContentSource. The
// tile tree only tracks ownership; Dispose releases whatever the renderer
// allocated for it.
type Graphic interface {
	Dispose()
}

// TileContent is the drawable payload of one static tile.
type TileContent struct {
	// Graphic is the renderable for this tile, nil when the tile covers no
	// geometry.
	Graphic Graphic

	// ContentRange bounds the geometry actually present in the tile. It may
	// be tighter than the tile's spatial extent. Empty means unknown, in
	// which case the tile's own extent stands in for it.
	ContentRange geometry.Range3

	// IsLeaf marks tiles whose content already shows every element at full
	// detail; selection never descends past them.
	IsLeaf bool
}

// ModelGeometry answers committed-state queries for one model. Implementations
// wrap whatever store holds the model: the briefcase itself, or the change
// feed's committed model state for remote viewers.
type ModelGeometry interface {
	// ModelRange returns the model's committed bounding range. It is read
	// when the tile tree is built and re-read after an editing scope commits.
	ModelRange() (geometry.Range3, error)

	// ElementRange returns the committed bounding range of one element.
	// Unknown elements return (nil, nil); the caller treats them as an empty
	// contribution rather than an error.
	ElementRange(id changeset.ElementID) (*geometry.Range3, error)
}

// ContentSource produces drawable content. The real implementation sits in
// the render layer; tests and the replay tool provide stubs.
type ContentSource interface {
	// LoadTileContent builds the content of one static tile.
	LoadTileContent(id TileID) (*TileContent, error)

	// LoadElementGraphic builds the dynamic representation of one changed
	// element from its current range.
	LoadElementGraphic(id changeset.ElementID, rng geometry.Range3) (Graphic, error)
}
