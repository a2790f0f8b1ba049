package tiletree

import (
	"github.com/tessera3d/tessera/pkg/changeset"
)

// Overrides marks element ids whose static-tile appearance must be
// suppressed because a newer dynamic representation supersedes it. A fresh
// instance is built for every draw from the overlay's current hidden set, so
// render-layer consumers never observe a partially updated one.
type Overrides struct {
	hidden map[changeset.ElementID]struct{}
}

// NewOverrides builds overrides hiding the given ids.
func NewOverrides(ids []changeset.ElementID) *Overrides {
	o := &Overrides{hidden: make(map[changeset.ElementID]struct{}, len(ids))}
	for _, id := range ids {
		o.hidden[id] = struct{}{}
	}
	return o
}

// NeverDrawn reports whether the element must not be drawn from static
// tiles.
func (o *Overrides) NeverDrawn(id changeset.ElementID) bool {
	_, ok := o.hidden[id]
	return ok
}

// Len returns the number of hidden elements.
func (o *Overrides) Len() int {
	return len(o.hidden)
}

// HiddenList returns the hidden ids in ascending order.
func (o *Overrides) HiddenList() []changeset.ElementID {
	ids := make([]changeset.ElementID, 0, len(o.hidden))
	for id := range o.hidden {
		ids = append(ids, id)
	}
	changeset.SortElementIDs(ids)
	return ids
}
