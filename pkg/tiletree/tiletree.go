package tiletree

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tessera3d/tessera/internal/logging"
	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/editing"
	"github.com/tessera3d/tessera/pkg/geometry"
)

const (
	defaultMaxDepth  uint8   = 6
	defaultTolerance float32 = 0.5
)

// LoadPriority classifies how urgently a tree's content should be loaded
// relative to other trees in the same view.
type LoadPriority uint8

const (
	// PriorityPrimary is the design model the view exists to show.
	PriorityPrimary LoadPriority = iota

	// PriorityContext is surrounding reference geometry.
	PriorityContext

	// PriorityMap is background map imagery.
	PriorityMap

	// PriorityTerrain is background terrain skirting the model.
	PriorityTerrain
)

// String renders the priority class.
func (p LoadPriority) String() string {
	switch p {
	case PriorityPrimary:
		return "primary"
	case PriorityContext:
		return "context"
	case PriorityMap:
		return "map"
	case PriorityTerrain:
		return "terrain"
	default:
		return "unknown"
	}
}

// Validate checks that p is a known priority class.
func (p LoadPriority) Validate() error {
	if p > PriorityTerrain {
		return fmt.Errorf("invalid load priority %d (valid: primary, context, map, terrain)", p)
	}
	return nil
}

// ParseLoadPriority maps a config/flag string to a priority class. The empty
// string means primary.
func ParseLoadPriority(s string) (LoadPriority, error) {
	switch s {
	case "", "primary":
		return PriorityPrimary, nil
	case "context":
		return PriorityContext, nil
	case "map":
		return PriorityMap, nil
	case "terrain":
		return PriorityTerrain, nil
	default:
		return 0, fmt.Errorf("invalid load priority %q (valid: primary, context, map, terrain)", s)
	}
}

// Params identifies and situates one model's tile tree.
type Params struct {
	// Model is the spatial model this tree renders.
	Model changeset.ModelID

	// Location places tile coordinates in world space.
	Location geometry.Transform

	// ContentRange is the caller-known extent of the model's content, used
	// as a fallback while the committed model range is unavailable. The
	// zero value counts as empty.
	ContentRange geometry.Range3

	// Priority is the tree's load-priority class.
	Priority LoadPriority
}

// Validate checks the params.
func (p Params) Validate() error {
	if err := p.Model.Validate(); err != nil {
		return fmt.Errorf("invalid tile tree params: %w", err)
	}
	if err := p.Priority.Validate(); err != nil {
		return fmt.Errorf("invalid tile tree params: %w", err)
	}
	return nil
}

// TileTree is one model's renderable hierarchy: a static level-of-detail
// subtree over committed geometry plus, during an editing session that has
// changed the model, a dynamic overlay of the changed elements. The tree
// tracks its connection's editing lifecycle on its own; callers only select,
// draw, prune, and eventually dispose.
//
// A tree is not safe for concurrent use. All methods, and the editing events
// that drive the tree, must run on one goroutine.
type TileTree struct {
	params Params
	log    *slog.Logger

	tolerance float32
	root      *rootTile
}

// Option configures a TileTree.
type Option func(*treeConfig)

type treeConfig struct {
	log       *slog.Logger
	maxDepth  uint8
	tolerance float32
}

// WithLogger sets the tree's logger. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(c *treeConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMaxDepth caps static subdivision depth. The default is 6.
func WithMaxDepth(n uint8) Option {
	return func(c *treeConfig) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithTolerance sets the tree's refinement tolerance, used when DrawArgs
// carries none. Smaller selects deeper tiles. The default is 0.5.
func WithTolerance(f float32) Option {
	return func(c *treeConfig) {
		if f > 0 {
			c.tolerance = f
		}
	}
}

// New creates the tile tree for params.Model on the given connection. The
// tree immediately reflects the connection's current editing state: created
// mid-session with pending changes for its model, it starts dynamic.
func New(params Params, conn *editing.Connection, geom ModelGeometry, src ContentSource, opts ...Option) (*TileTree, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, fmt.Errorf("invalid tile tree params: connection is required")
	}
	if geom == nil {
		return nil, fmt.Errorf("invalid tile tree params: model geometry is required")
	}
	if src == nil {
		return nil, fmt.Errorf("invalid tile tree params: content source is required")
	}

	cfg := treeConfig{
		log:       logging.NewNop(),
		maxDepth:  defaultMaxDepth,
		tolerance: defaultTolerance,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if params.ContentRange == (geometry.Range3{}) {
		params.ContentRange = geometry.EmptyRange3()
	}

	t := &TileTree{
		params:    params,
		log:       cfg.log,
		tolerance: cfg.tolerance,
	}
	t.root = newRootTile(params, conn, geom, src, cfg.maxDepth, cfg.log)
	return t, nil
}

// Model returns the model this tree renders.
func (t *TileTree) Model() changeset.ModelID {
	return t.params.Model
}

// Location returns the tree's world-space transform.
func (t *TileTree) Location() geometry.Transform {
	return t.params.Location
}

// Priority returns the tree's load-priority class.
func (t *TileTree) Priority() LoadPriority {
	return t.params.Priority
}

// State returns the root tile's current lifecycle state.
func (t *TileTree) State() State {
	return t.root.state
}

// Range returns the tree's full extent: the static subtree's range, widened
// by the dynamic overlay while the tree is dynamic.
func (t *TileTree) Range() geometry.Range3 {
	return t.root.rng
}

// ContentRange returns the extent of actual content, which can be tighter
// than Range.
func (t *TileTree) ContentRange() geometry.Range3 {
	return t.root.contentRange
}

// BoundingSphere returns the sphere enclosing Range.
func (t *TileTree) BoundingSphere() geometry.Sphere {
	return geometry.BoundingSphere(t.root.rng)
}

// SelectTiles returns the static tiles this frame should display. The
// dynamic overlay never participates in selection; Draw appends its
// elements as a separate pass.
func (t *TileTree) SelectTiles(args *DrawArgs) []*Tile {
	return t.root.selectTiles(args, t.tolerance)
}

// Draw appends this frame's draw commands to args.Commands: one static
// command per selected tile, carrying the overrides that hide elements the
// dynamic overlay supersedes, then one dynamic command per changed element
// in view.
func (t *TileTree) Draw(args *DrawArgs) {
	t.root.draw(args, t.tolerance)
}

// Prune discards static branches not used since expiration ago. The dynamic
// overlay is never pruned; its lifetime is the editing scope's.
func (t *TileTree) Prune(expiration time.Duration) {
	t.root.prune(time.Now().Add(-expiration))
}

// HiddenElements returns the elements the static pass must not draw because
// the dynamic overlay supersedes them. Empty unless the tree is dynamic.
func (t *TileTree) HiddenElements() []changeset.ElementID {
	return t.root.hiddenElements()
}

// Dispose releases the tree's content and detaches it from editing events.
// Terminal. Disposing a disposed tree panics.
func (t *TileTree) Dispose() {
	t.root.dispose()
	t.log.Debug("tile tree disposed", "model", t.params.Model)
}
