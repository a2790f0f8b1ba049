// Package tiletree renders one spatial model as a level-of-detail tile
// hierarchy that stays current while the model is edited.
//
// # Root tile states
//
// Every tree owns one root tile holding a state machine with four states.
// Static means no editing scope is active and only the static subtree
// exists. Interactive means a scope is active but the model is untouched.
// Dynamic means the model has changed during the scope and a dynamic
// overlay of the changed elements is live. Disposed is terminal. The
// transitions are driven by the editing package's events: scope enter moves
// static to interactive, the first change for the model moves interactive
// to dynamic, and scope ending moves either back to static. A tree created
// mid-session synthesizes its initial state from the connection, so joining
// late never misses a transition.
//
// # Static subtree
//
// The static subtree covers the model's committed geometry. Tiles subdivide
// by octant down to a maximum depth; selection refines until a tile's
// diagonal is within tolerance or it is a leaf, loading content through the
// ContentSource on first selection and stamping last-use times that Prune
// later consults. After a scope with changes ends, the subtree refreshes:
// committed content has changed, so cached content is dropped and the model
// range re-read.
//
// # Dynamic overlay
//
// While dynamic, the changed elements live in an overlay keyed by the
// scope's accumulated change set. Each content element carries a graphic
// built from its change-record range (or the committed element range when
// the record has none) and is indexed in an R-tree for range queries. The
// overlay also derives the hidden set: elements that existed before the
// scope and were updated or deleted must not be drawn by the static pass,
// so Draw attaches them as overrides on every static command and appends
// the overlay's own commands afterwards.
//
// # Ranges
//
// Range and ContentRange equal the static subtree's extents while static or
// interactive. While dynamic they both become the union of the static
// content range and the overlay's element ranges, and on return to static
// they are re-read from the refreshed subtree.
//
// # Concurrency
//
// Trees are not safe for concurrent use. All methods and the editing events
// that drive the state machine must run on a single goroutine; editing's
// Monitor provides that loop when events arrive from a remote feed.
package tiletree
