package tiletree

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/geometry"
)

// TileID addresses one node of a model's static tile hierarchy by depth and
// octant coordinates. Ids are stable across rebuilds of the hierarchy, so
// content caches may key on them.
type TileID struct {
	Model   changeset.ModelID
	Depth   uint8
	I, J, K uint32
}

// String renders the id in the form "0x1c/2/1-0-3".
func (id TileID) String() string {
	return fmt.Sprintf("%s/%d/%d-%d-%d", id.Model, id.Depth, id.I, id.J, id.K)
}

// Tile is one node of the static subtree. Tiles subdivide lazily into
// octants as selection refines them and are discarded again by pruning.
type Tile struct {
	id       TileID
	rng      geometry.Range3
	children []*Tile
	content  *TileContent
	lastUsed time.Time
}

// ID returns the tile's address.
func (t *Tile) ID() TileID {
	return t.id
}

// Range returns the tile's spatial extent.
func (t *Tile) Range() geometry.Range3 {
	return t.rng
}

// ContentRange returns the bounds of the tile's loaded content, or the
// tile's extent when no content is loaded.
func (t *Tile) ContentRange() geometry.Range3 {
	if t.content != nil && !t.content.ContentRange.IsEmpty() {
		return t.content.ContentRange
	}
	return t.rng
}

// LastUsed returns when selection last touched the tile.
func (t *Tile) LastUsed() time.Time {
	return t.lastUsed
}

// IsLeaf reports whether selection may not refine past this tile.
func (t *Tile) IsLeaf() bool {
	return t.content != nil && t.content.IsLeaf
}

// child returns the octant child (dx, dy, dz), creating it on first use.
func (t *Tile) child(dx, dy, dz uint32) *Tile {
	idx := dx | dy<<1 | dz<<2
	if t.children == nil {
		t.children = make([]*Tile, 8)
	}
	if t.children[idx] != nil {
		return t.children[idx]
	}

	c := t.rng.Center()
	sub := t.rng
	if dx == 0 {
		sub.Max.X = c.X
	} else {
		sub.Min.X = c.X
	}
	if dy == 0 {
		sub.Max.Y = c.Y
	} else {
		sub.Min.Y = c.Y
	}
	if dz == 0 {
		sub.Max.Z = c.Z
	} else {
		sub.Min.Z = c.Z
	}

	t.children[idx] = &Tile{
		id: TileID{
			Model: t.id.Model,
			Depth: t.id.Depth + 1,
			I:     t.id.I<<1 | dx,
			J:     t.id.J<<1 | dy,
			K:     t.id.K<<1 | dz,
		},
		rng: sub,
	}
	return t.children[idx]
}

// newestUse returns the most recent selection time in the tile's subtree.
func (t *Tile) newestUse() time.Time {
	newest := t.lastUsed
	for _, c := range t.children {
		if c == nil {
			continue
		}
		if n := c.newestUse(); n.After(newest) {
			newest = n
		}
	}
	return newest
}

// discard drops the subtree's content and children, disposing loaded
// graphics.
func (t *Tile) discard() {
	for _, c := range t.children {
		if c != nil {
			c.discard()
		}
	}
	t.children = nil
	if t.content != nil && t.content.Graphic != nil {
		t.content.Graphic.Dispose()
	}
	t.content = nil
}

// staticSubtree is the tile hierarchy over a model's committed geometry. Its
// root covers the committed model range; children are created lazily by
// octant subdivision down to maxDepth. After a scope's edits commit, refresh
// re-reads the range and drops the now stale content.
type staticSubtree struct {
	model    changeset.ModelID
	geom     ModelGeometry
	src      ContentSource
	log      *slog.Logger
	maxDepth uint8

	root         *Tile
	contentRange geometry.Range3
}

func newStaticSubtree(model changeset.ModelID, contentRange geometry.Range3, geom ModelGeometry, src ContentSource, maxDepth uint8, log *slog.Logger) *staticSubtree {
	s := &staticSubtree{
		model:    model,
		geom:     geom,
		src:      src,
		log:      log,
		maxDepth: maxDepth,
	}
	s.rebuild(contentRange)
	return s
}

// rebuild reads the committed model range and resets the hierarchy to a bare
// root. The fallback range is used when the committed range is unavailable.
func (s *staticSubtree) rebuild(fallback geometry.Range3) {
	rng, err := s.geom.ModelRange()
	if err != nil {
		s.log.Warn("failed to read model range; tile tree degrades to fallback bounds",
			"model", s.model, "error", err)
		rng = fallback
	}

	if s.root != nil {
		s.root.discard()
	}
	s.root = &Tile{
		id:  TileID{Model: s.model},
		rng: rng,
	}
	s.contentRange = rng
	if !fallback.IsEmpty() && !rng.IsEmpty() && rng.Contains(fallback) {
		s.contentRange = fallback
	}
}

// refresh re-reads the committed model range after a scope's edits were
// committed and drops all loaded content, which no longer matches it.
func (s *staticSubtree) refresh() {
	s.rebuild(geometry.EmptyRange3())
}

// Range returns the root tile's extent.
func (s *staticSubtree) Range() geometry.Range3 {
	return s.root.rng
}

// ContentRange returns the bounds of the committed content.
func (s *staticSubtree) ContentRange() geometry.Range3 {
	return s.contentRange
}

// selectTiles walks the hierarchy and returns the tiles to draw this frame:
// a tile is taken when its world-space error is within args.Tolerance, when
// it is a leaf, or when it sits at maxDepth; otherwise its intersecting
// children are refined instead. Selected tiles get their content loaded on
// first use; a tile whose content fails to load is skipped so one bad tile
// never takes down the frame.
func (s *staticSubtree) selectTiles(args *DrawArgs, tolerance float32) []*Tile {
	if args.Tolerance > 0 {
		tolerance = args.Tolerance
	}
	var out []*Tile
	s.selectFrom(s.root, args, tolerance, &out)
	return out
}

func (s *staticSubtree) selectFrom(t *Tile, args *DrawArgs, tolerance float32, out *[]*Tile) {
	if t.rng.IsEmpty() || args.culled(t.rng) {
		return
	}
	t.lastUsed = args.now()

	if t.rng.Diagonal() > tolerance && t.id.Depth < s.maxDepth && !t.IsLeaf() {
		for dz := uint32(0); dz < 2; dz++ {
			for dy := uint32(0); dy < 2; dy++ {
				for dx := uint32(0); dx < 2; dx++ {
					s.selectFrom(t.child(dx, dy, dz), args, tolerance, out)
				}
			}
		}
		return
	}

	if t.content == nil {
		content, err := s.src.LoadTileContent(t.id)
		if err != nil {
			s.log.Warn("failed to load tile content; skipping tile",
				"tile", t.id.String(), "error", err)
			return
		}
		t.content = content
	}
	*out = append(*out, t)
}

// prune discards branches whose entire subtree was last selected before the
// cutoff. The root always survives; the overlay of an editing scope is not
// managed here at all.
func (s *staticSubtree) prune(cutoff time.Time) {
	s.pruneBranch(s.root, cutoff)
}

func (s *staticSubtree) pruneBranch(t *Tile, cutoff time.Time) {
	empty := true
	for i, c := range t.children {
		if c == nil {
			continue
		}
		if c.newestUse().Before(cutoff) {
			c.discard()
			t.children[i] = nil
			continue
		}
		s.pruneBranch(c, cutoff)
		empty = false
	}
	if empty {
		t.children = nil
	}
}

// discardContent drops every loaded graphic. Used on disposal.
func (s *staticSubtree) discardContent() {
	s.root.discard()
}
