package tiletree

import (
	"log/slog"
	"time"

	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/editing"
	"github.com/tessera3d/tessera/pkg/events"
	"github.com/tessera3d/tessera/pkg/geometry"
)

// State is the root tile's lifecycle state. Exactly one is active at any
// time, and every transition is driven by an editing event or by disposal.
type State uint8

const (
	// StateStatic means no editing scope is active; only the static subtree
	// exists.
	StateStatic State = iota

	// StateInteractive means a scope is active but this model has received
	// no changes yet.
	StateInteractive

	// StateDynamic means the model has changed during the active scope and
	// a dynamic overlay is live.
	StateDynamic

	// StateDisposed is terminal; every event is without effect.
	StateDisposed
)

// String renders the state for introspection and logs.
func (s State) String() string {
	switch s {
	case StateStatic:
		return "static"
	case StateInteractive:
		return "interactive"
	case StateDynamic:
		return "dynamic"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// rootTile is the single entry point into one model's tile hierarchy. It
// owns the always-present static subtree, the per-state event subscriptions,
// and, while dynamic, the overlay branch. Each state holds exactly the
// payload it needs:
//
//	static       scopeEnter subscription
//	interactive  scope + ending/changes subscriptions
//	dynamic      scope + ending/changes subscriptions + overlay
//	disposed     nothing
//
// Transitions clear the previous state's payload before installing the next;
// the finalizer methods panic when asked to enter the state that is already
// active, since that can only mean the event contract was violated.
type rootTile struct {
	model changeset.ModelID
	conn  *editing.Connection
	geom  ModelGeometry
	src   ContentSource
	log   *slog.Logger

	static       *staticSubtree
	rng          geometry.Range3
	contentRange geometry.Range3

	state      State
	scopeEnter *events.Handle
	scope      *editing.Scope
	ending     *events.Handle
	changes    *events.Handle
	overlay    *dynamicBranch
}

func newRootTile(params Params, conn *editing.Connection, geom ModelGeometry, src ContentSource, maxDepth uint8, log *slog.Logger) *rootTile {
	r := &rootTile{
		model:  params.Model,
		conn:   conn,
		geom:   geom,
		src:    src,
		log:    log,
		static: newStaticSubtree(params.Model, params.ContentRange, geom, src, maxDepth, log),
	}
	r.resetRangeFromStatic()

	// Trees are created at any point of the editing lifecycle, so the
	// initial state is synthesized from the scope that is already active
	// rather than assumed static. A tree created mid-scope with pending
	// changes for its model starts dynamic immediately.
	scope := conn.Scope()
	switch {
	case scope == nil:
		r.state = StateStatic
		r.watchForScopeEnter()
	default:
		if current := scope.ChangesForModel(r.model); current != nil {
			r.state = StateDynamic
			r.overlay = newDynamicBranch(r.model, current, r.geom, r.src, r.log)
			r.recomputeDynamicRange()
		} else {
			r.state = StateInteractive
		}
		r.watchScope(scope)
	}
	r.log.Debug("root tile created", "model", r.model, "state", r.state.String())
	return r
}

// watchForScopeEnter subscribes the static state's only event.
func (r *rootTile) watchForScopeEnter() {
	r.scopeEnter = r.conn.ScopeEnter().Listen(r.handleScopeEnter)
}

// watchScope subscribes the interactive/dynamic events of one scope.
func (r *rootTile) watchScope(scope *editing.Scope) {
	r.scope = scope
	r.ending = scope.Ending().Listen(r.handleScopeEnding)
	r.changes = scope.GeometryChanged().Listen(r.handleGeometryChanges)
}

// closeSubscriptions releases whatever subscriptions the current state holds.
func (r *rootTile) closeSubscriptions() {
	if r.scopeEnter != nil {
		r.scopeEnter.Close()
		r.scopeEnter = nil
	}
	if r.ending != nil {
		r.ending.Close()
		r.ending = nil
	}
	if r.changes != nil {
		r.changes.Close()
		r.changes = nil
	}
	r.scope = nil
}

// handleScopeEnter reacts to an editing scope becoming active. Subscribed
// only while static.
func (r *rootTile) handleScopeEnter(scope *editing.Scope) {
	if r.state == StateDisposed {
		return
	}
	r.becomeInteractive(scope)
}

// handleScopeEnding reacts to the active scope beginning to exit. Subscribed
// while interactive or dynamic.
func (r *rootTile) handleScopeEnding(*editing.Scope) {
	if r.state == StateDisposed {
		return
	}
	r.becomeStatic()
}

// handleGeometryChanges reacts to one save's change records. Records for
// other models are ignored. The first batch for this model finalizes the
// dynamic state; later batches feed the existing overlay.
func (r *rootTile) handleGeometryChanges(batch []changeset.ModelChanges) {
	if r.state == StateDisposed {
		return
	}

	var records []changeset.ElementChange
	for _, mc := range batch {
		if mc.Model == r.model {
			records = append(records, mc.Elements...)
		}
	}
	if len(records) == 0 {
		return
	}

	if r.state == StateInteractive {
		r.becomeDynamic()
		return
	}

	r.overlay.handleGeometryChanges(records)
	r.recomputeDynamicRange()
	r.log.Debug("dynamic overlay updated",
		"model", r.model, "records", len(records), "elements", r.overlay.len())
}

// becomeInteractive finalizes Static → Interactive when a scope begins.
func (r *rootTile) becomeInteractive(scope *editing.Scope) {
	if r.state == StateInteractive {
		panic("tiletree: root tile is already interactive")
	}
	r.closeSubscriptions()
	r.state = StateInteractive
	r.watchScope(scope)
	r.log.Debug("root tile interactive", "model", r.model, "scope", scope.ID())
}

// becomeDynamic finalizes Interactive → Dynamic on the first change for this
// model. The overlay is built from the scope's accumulated change set, which
// already includes the records of the save that triggered the transition.
func (r *rootTile) becomeDynamic() {
	if r.state == StateDynamic {
		panic("tiletree: root tile is already dynamic")
	}
	r.state = StateDynamic
	r.overlay = newDynamicBranch(r.model, r.scope.ChangesForModel(r.model), r.geom, r.src, r.log)
	r.recomputeDynamicRange()
	r.log.Debug("root tile dynamic", "model", r.model, "elements", r.overlay.len())
}

// becomeStatic finalizes Interactive/Dynamic → Static when the scope ends.
// Coming from dynamic, the scope's edits were committed, so the static
// subtree is refreshed and the ranges re-read from it; just dropping the
// overlay would leave the pre-edit bounds in place.
func (r *rootTile) becomeStatic() {
	if r.state == StateStatic {
		panic("tiletree: root tile is already static")
	}
	r.closeSubscriptions()
	if r.overlay != nil {
		r.overlay.dispose()
		r.overlay = nil
		r.static.refresh()
	}
	r.state = StateStatic
	r.resetRangeFromStatic()
	r.watchForScopeEnter()
	r.log.Debug("root tile static", "model", r.model)
}

// dispose tears the root tile down from any state. Terminal: subscriptions
// are removed, so later events never reach the tile. Disposing twice is a
// contract violation.
func (r *rootTile) dispose() {
	if r.state == StateDisposed {
		panic("tiletree: root tile is already disposed")
	}
	r.closeSubscriptions()
	if r.overlay != nil {
		r.overlay.dispose()
		r.overlay = nil
	}
	r.static.discardContent()
	r.state = StateDisposed
	r.log.Debug("root tile disposed", "model", r.model)
}

// resetRangeFromStatic re-reads both ranges from the static subtree.
func (r *rootTile) resetRangeFromStatic() {
	r.rng = r.static.Range()
	r.contentRange = r.static.ContentRange()
}

// recomputeDynamicRange sets both ranges to the union of the static content
// range and every dynamic element range.
func (r *rootTile) recomputeDynamicRange() {
	u := r.static.ContentRange().Union(r.overlay.unionRange())
	r.rng = u
	r.contentRange = u
}

// selectTiles selects from the static subtree only; the overlay is drawn
// separately so replaced elements can be suppressed without touching the
// static hierarchy.
func (r *rootTile) selectTiles(args *DrawArgs, tolerance float32) []*Tile {
	if r.state == StateDisposed {
		return nil
	}
	return r.static.selectTiles(args, tolerance)
}

// draw appends this frame's commands: the static pass with hide overrides
// first, then, while dynamic, the overlay pass on top.
func (r *rootTile) draw(args *DrawArgs, tolerance float32) {
	if r.state == StateDisposed {
		return
	}

	overrides := NewOverrides(nil)
	if r.overlay != nil {
		overrides = NewOverrides(r.overlay.hiddenElements())
	}

	for _, t := range r.selectTiles(args, tolerance) {
		if t.content == nil || t.content.Graphic == nil {
			continue
		}
		args.Commands = append(args.Commands, DrawCommand{
			Pass:      DrawPassStatic,
			Tile:      t.id,
			Graphic:   t.content.Graphic,
			Overrides: overrides,
		})
	}

	if r.state == StateDynamic {
		r.overlay.draw(args)
	}
}

// prune discards stale static branches. The overlay's lifetime is governed
// by the scope alone, never by recency.
func (r *rootTile) prune(cutoff time.Time) {
	if r.state == StateDisposed {
		return
	}
	r.static.prune(cutoff)
}

// hiddenElements returns the overlay's hidden set, empty outside dynamic.
func (r *rootTile) hiddenElements() []changeset.ElementID {
	if r.overlay == nil {
		return nil
	}
	return r.overlay.hiddenElements()
}
