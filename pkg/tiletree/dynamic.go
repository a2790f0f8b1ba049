package tiletree

import (
	"log/slog"

	"github.com/dhconnelly/rtreego"

	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/geometry"
)

// Spatial index parameters. Working sets are small (the elements touched by
// one editing scope), so the branching factor stays low.
const (
	indexMinChildren = 2
	indexMaxChildren = 8

	// indexPadding inflates index rectangles so degenerate ranges remain
	// valid and touching queries match.
	indexPadding = 1e-3
)

// elementItem adapts one changed element to the spatial index.
type elementItem struct {
	id   changeset.ElementID
	rect rtreego.Rect
}

func (it *elementItem) Bounds() rtreego.Rect {
	return it.rect
}

// indexRect converts a range to an index rectangle, padded on every axis.
func indexRect(r geometry.Range3) (rtreego.Rect, error) {
	origin := rtreego.Point{
		float64(r.Min.X) - indexPadding,
		float64(r.Min.Y) - indexPadding,
		float64(r.Min.Z) - indexPadding,
	}
	lengths := []float64{
		float64(r.Max.X-r.Min.X) + 2*indexPadding,
		float64(r.Max.Y-r.Min.Y) + 2*indexPadding,
		float64(r.Max.Z-r.Min.Z) + 2*indexPadding,
	}
	return rtreego.NewRect(origin, lengths)
}

// dynamicBranch is the working set of elements changed during the active
// editing scope for one model: their net opcodes, current ranges, drawable
// graphics, a spatial index over the drawable ones, and the union
// range/bounding sphere of the whole set.
//
// All methods run on the goroutine delivering editing events; the branch is
// owned exclusively by its root tile.
type dynamicBranch struct {
	model changeset.ModelID
	geom  ModelGeometry
	src   ContentSource
	log   *slog.Logger

	set      *changeset.ModelSet
	ranges   map[changeset.ElementID]geometry.Range3
	graphics map[changeset.ElementID]Graphic
	indexed  map[changeset.ElementID]*elementItem
	index    *rtreego.Rtree
	union    geometry.Range3
	sphere   geometry.Sphere
	disposed bool
}

// newDynamicBranch builds the branch from the scope's change set as
// accumulated at the moment of the first change for this model. The set is
// cloned; the scope keeps sole ownership of its own copy.
func newDynamicBranch(model changeset.ModelID, current *changeset.ModelSet, geom ModelGeometry, src ContentSource, log *slog.Logger) *dynamicBranch {
	set := changeset.NewModelSet(model)
	if current != nil {
		set = current.Clone()
	}
	b := &dynamicBranch{
		model:    model,
		geom:     geom,
		src:      src,
		log:      log,
		set:      set,
		ranges:   make(map[changeset.ElementID]geometry.Range3),
		graphics: make(map[changeset.ElementID]Graphic),
		indexed:  make(map[changeset.ElementID]*elementItem),
		index:    rtreego.NewTree(3, indexMinChildren, indexMaxChildren),
	}
	b.set.Each(b.refreshElement)
	b.recomputeBounds()
	return b
}

// handleGeometryChanges folds one save's records for this model into the
// branch. Each record replaces the element's prior state; net removals drop
// the element entirely. Bounds are recomputed once at the end.
func (b *dynamicBranch) handleGeometryChanges(records []changeset.ElementChange) {
	for _, rec := range records {
		switch b.set.Apply(rec) {
		case changeset.MutationRemoved:
			b.dropElement(rec.ID)
		default:
			entry, ok := b.set.Get(rec.ID)
			if !ok {
				continue
			}
			b.refreshElement(entry)
		}
	}
	b.recomputeBounds()
}

// refreshElement rebuilds the drawable state of one element from its current
// entry. Elements whose net state is a delete keep no drawable state; they
// are represented purely through the hidden set.
func (b *dynamicBranch) refreshElement(entry changeset.Entry) {
	b.dropElement(entry.ID)

	if entry.Op == changeset.OpcodeDelete {
		return
	}

	rng := entry.Range
	if rng == nil {
		committed, err := b.geom.ElementRange(entry.ID)
		if err != nil {
			b.log.Warn("failed to read committed element range",
				"model", b.model, "element", entry.ID, "error", err)
		}
		rng = committed
	}
	if rng == nil || rng.IsEmpty() {
		// Nothing to place; the element contributes an empty range.
		b.log.Debug("changed element has no range", "model", b.model, "element", entry.ID)
		return
	}

	b.ranges[entry.ID] = *rng

	g, err := b.src.LoadElementGraphic(entry.ID, *rng)
	if err != nil {
		b.log.Warn("failed to load element graphic; element will not draw",
			"model", b.model, "element", entry.ID, "error", err)
	} else if g != nil {
		b.graphics[entry.ID] = g
	}

	rect, err := indexRect(*rng)
	if err != nil {
		b.log.Warn("failed to index element range",
			"model", b.model, "element", entry.ID, "error", err)
		return
	}
	item := &elementItem{id: entry.ID, rect: rect}
	b.index.Insert(item)
	b.indexed[entry.ID] = item
}

// dropElement releases every per-element resource.
func (b *dynamicBranch) dropElement(id changeset.ElementID) {
	if g, ok := b.graphics[id]; ok {
		g.Dispose()
		delete(b.graphics, id)
	}
	if item, ok := b.indexed[id]; ok {
		b.index.Delete(item)
		delete(b.indexed, id)
	}
	delete(b.ranges, id)
}

// recomputeBounds refreshes the union range and its bounding sphere.
func (b *dynamicBranch) recomputeBounds() {
	union := geometry.EmptyRange3()
	for _, rng := range b.ranges {
		union.ExpandByRange(rng)
	}
	b.union = union
	b.sphere = geometry.BoundingSphere(union)
}

// hiddenElements returns the ids whose static representation must be
// suppressed, in ascending order.
func (b *dynamicBranch) hiddenElements() []changeset.ElementID {
	return b.set.Hidden()
}

// unionRange returns the union of all drawable element ranges.
func (b *dynamicBranch) unionRange() geometry.Range3 {
	return b.union
}

// boundingSphere returns the sphere around the union range.
func (b *dynamicBranch) boundingSphere() geometry.Sphere {
	return b.sphere
}

// len returns the number of tracked elements.
func (b *dynamicBranch) len() int {
	return b.set.Len()
}

// elementsInRange returns the ids of drawable elements whose range
// intersects r, in ascending order.
func (b *dynamicBranch) elementsInRange(r geometry.Range3) []changeset.ElementID {
	if b.disposed || r.IsEmpty() || b.index.Size() == 0 {
		return nil
	}
	rect, err := indexRect(r)
	if err != nil {
		return nil
	}
	matches := b.index.SearchIntersect(rect)
	ids := make([]changeset.ElementID, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.(*elementItem).id)
	}
	changeset.SortElementIDs(ids)
	return ids
}

// draw appends one dynamic command per drawable element inside the view.
func (b *dynamicBranch) draw(args *DrawArgs) {
	for _, entry := range b.set.Content() {
		g, ok := b.graphics[entry.ID]
		if !ok {
			continue
		}
		if rng, ok := b.ranges[entry.ID]; ok && args.culled(rng) {
			continue
		}
		args.Commands = append(args.Commands, DrawCommand{
			Pass:    DrawPassDynamic,
			Element: entry.ID,
			Graphic: g,
		})
	}
}

// dispose releases all graphics and detaches the index. Idempotent.
func (b *dynamicBranch) dispose() {
	if b.disposed {
		return
	}
	b.disposed = true
	for id, g := range b.graphics {
		g.Dispose()
		delete(b.graphics, id)
	}
	b.indexed = nil
	b.ranges = nil
	b.union = geometry.EmptyRange3()
	b.sphere = geometry.Sphere{}
}
