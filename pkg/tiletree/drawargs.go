package tiletree

import (
	"time"

	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/geometry"
)

// DrawPass identifies which pass a draw command belongs to. Static content
// is always drawn first so the dynamic overlay can paint over it.
type DrawPass string

const (
	// DrawPassStatic draws tiles of the static subtree, with hide overrides
	// applied.
	DrawPassStatic DrawPass = "static"

	// DrawPassDynamic draws the per-element overlay of an active editing
	// scope.
	DrawPassDynamic DrawPass = "dynamic"
)

// DrawCommand is one renderable unit appended during a draw. Static commands
// carry the tile id and the overrides to apply; dynamic commands carry the
// element id and no overrides.
type DrawCommand struct {
	Pass      DrawPass
	Tile      TileID
	Element   changeset.ElementID
	Graphic   Graphic
	Overrides *Overrides
}

// DrawArgs carries one frame's selection parameters in and the produced draw
// commands out. The render layer constructs it per frame and consumes
// Commands afterwards.
type DrawArgs struct {
	// Now stamps selected tiles for recency pruning. The zero value means
	// the current time.
	Now time.Time

	// ViewRange culls tiles and dynamic elements that cannot be visible.
	// The zero value and the empty range disable culling.
	ViewRange geometry.Range3

	// Tolerance is the acceptable world-space error: tiles whose diagonal
	// is at most this value are drawn instead of being refined further.
	// Zero means the tree's configured default.
	Tolerance float32

	// Location positions the model in world space.
	Location geometry.Transform

	Commands []DrawCommand
}

// now resolves the frame timestamp.
func (a *DrawArgs) now() time.Time {
	if a.Now.IsZero() {
		return time.Now()
	}
	return a.Now
}

// culled reports whether r is outside the view. Zero and empty view ranges
// cull nothing.
func (a *DrawArgs) culled(r geometry.Range3) bool {
	if a.ViewRange == (geometry.Range3{}) || a.ViewRange.IsEmpty() {
		return false
	}
	return !a.ViewRange.Intersects(r)
}
