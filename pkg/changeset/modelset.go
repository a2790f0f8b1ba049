package changeset

import (
	"github.com/tessera3d/tessera/pkg/geometry"
)

// Mutation describes how applying a change record altered a ModelSet.
type Mutation string

const (
	// MutationAdded means the record introduced an element not previously
	// in the set.
	MutationAdded Mutation = "added"

	// MutationReplaced means the record overwrote the element's existing
	// opcode and range.
	MutationReplaced Mutation = "replaced"

	// MutationRemoved means the record erased the element from the set.
	MutationRemoved Mutation = "removed"
)

// Entry is the net state of one changed element within an editing scope.
//
// SessionLocal is set when the element first entered the set via an insert
// record, meaning it did not exist before the scope began. The flag never
// changes afterwards, no matter how the entry's opcode is rewritten by later
// records.
type Entry struct {
	ID           ElementID
	Op           Opcode
	Range        *geometry.Range3
	SessionLocal bool
}

// ModelSet holds the net change per element for one model across all saves
// of an editing scope. Later records for the same element replace earlier
// ones rather than accumulating.
//
// A ModelSet is not safe for concurrent use; all mutations are expected to
// arrive on the goroutine delivering editing events.
type ModelSet struct {
	model   ModelID
	entries map[ElementID]*Entry
}

// NewModelSet returns an empty change set for the given model.
func NewModelSet(model ModelID) *ModelSet {
	return &ModelSet{
		model:   model,
		entries: make(map[ElementID]*Entry),
	}
}

// Model returns the model this set tracks.
func (s *ModelSet) Model() ModelID {
	return s.model
}

// Len returns the number of elements in the set.
func (s *ModelSet) Len() int {
	return len(s.entries)
}

// Apply folds one change record into the set and reports what changed.
//
// Rules:
//   - An unknown element is added; it is session-local when the record is
//     an insert.
//   - A delete of a session-local element erases the entry entirely. The
//     element was created and destroyed inside the scope, so no trace of it
//     belongs anywhere.
//   - Any other record replaces the entry's opcode and range.
//
// TODO: an undo that reverts an element to its committed geometry arrives
// as an ordinary insert or update record, so the entry lingers and the
// element keeps being drawn from the overlay as well as from static tiles.
// Drop entries whose range and opcode match the committed state once the
// committed-state query is cheap enough to consult here.
func (s *ModelSet) Apply(rec ElementChange) Mutation {
	entry, ok := s.entries[rec.ID]
	if !ok {
		s.entries[rec.ID] = &Entry{
			ID:           rec.ID,
			Op:           rec.Op,
			Range:        cloneRange(rec.Range),
			SessionLocal: rec.Op == OpcodeInsert,
		}
		return MutationAdded
	}

	if entry.SessionLocal && rec.Op == OpcodeDelete {
		delete(s.entries, rec.ID)
		return MutationRemoved
	}

	entry.Op = rec.Op
	entry.Range = cloneRange(rec.Range)
	return MutationReplaced
}

// Clone returns an independent copy of the set, session-local flags
// included. Used when a consumer needs to keep folding records into the set
// without mutating the scope's accumulated state.
func (s *ModelSet) Clone() *ModelSet {
	out := NewModelSet(s.model)
	for id, entry := range s.entries {
		e := *entry
		e.Range = cloneRange(entry.Range)
		out.entries[id] = &e
	}
	return out
}

// Get returns a copy of the entry for id, if present.
func (s *ModelSet) Get(id ElementID) (Entry, bool) {
	entry, ok := s.entries[id]
	if !ok {
		return Entry{}, false
	}
	out := *entry
	out.Range = cloneRange(entry.Range)
	return out, true
}

// Hidden returns the ids whose static-tile representation must be
// suppressed: elements that existed before the scope began and have since
// been updated or deleted. Session-local elements are never hidden because
// static tiles never contained them. Ids are in ascending order.
func (s *ModelSet) Hidden() []ElementID {
	var ids []ElementID
	for id, entry := range s.entries {
		if !entry.SessionLocal && entry.Op != OpcodeInsert {
			ids = append(ids, id)
		}
	}
	SortElementIDs(ids)
	return ids
}

// Content returns copies of the drawable entries, everything except net
// deletes, in ascending id order.
func (s *ModelSet) Content() []Entry {
	var ids []ElementID
	for id, entry := range s.entries {
		if entry.Op != OpcodeDelete {
			ids = append(ids, id)
		}
	}
	SortElementIDs(ids)

	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		entry := s.entries[id]
		e := *entry
		e.Range = cloneRange(entry.Range)
		out = append(out, e)
	}
	return out
}

// Each calls fn for every entry in ascending id order.
func (s *ModelSet) Each(fn func(Entry)) {
	ids := make([]ElementID, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	SortElementIDs(ids)
	for _, id := range ids {
		entry := s.entries[id]
		e := *entry
		e.Range = cloneRange(entry.Range)
		fn(e)
	}
}

// UnionRange returns the union of the ranges of all drawable entries.
// Entries without a range contribute nothing, so the result may be empty
// even when the set is not.
func (s *ModelSet) UnionRange() geometry.Range3 {
	union := geometry.EmptyRange3()
	for _, entry := range s.entries {
		if entry.Op == OpcodeDelete || entry.Range == nil {
			continue
		}
		union.ExpandByRange(*entry.Range)
	}
	return union
}

func cloneRange(r *geometry.Range3) *geometry.Range3 {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
