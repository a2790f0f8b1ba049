package replay

import (
	"fmt"
	"io"
	"strings"

	"github.com/tessera3d/tessera/internal/config"
	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/editing"
	"github.com/tessera3d/tessera/pkg/geometry"
	"github.com/tessera3d/tessera/pkg/tiletree"
)

// modelGeometry serves the committed range recorded in tessera.yml. Replay
// runs without a model store, so committed element geometry is unknown.
type modelGeometry struct {
	rng geometry.Range3
}

func (g modelGeometry) ModelRange() (geometry.Range3, error) {
	return g.rng, nil
}

func (g modelGeometry) ElementRange(changeset.ElementID) (*geometry.Range3, error) {
	return nil, nil
}

// placeholder stands in for renderer resources.
type placeholder struct{}

func (placeholder) Dispose() {}

// placeholderSource builds placeholder content for every tile and element.
type placeholderSource struct{}

func (placeholderSource) LoadTileContent(tiletree.TileID) (*tiletree.TileContent, error) {
	return &tiletree.TileContent{Graphic: placeholder{}, ContentRange: geometry.EmptyRange3()}, nil
}

func (placeholderSource) LoadElementGraphic(changeset.ElementID, geometry.Range3) (tiletree.Graphic, error) {
	return placeholder{}, nil
}

// Runner executes a script against an in-process connection with one tile
// tree per configured model, writing the tree states after each step.
type Runner struct {
	conn    *editing.Connection
	order   []changeset.ModelID
	trees   map[changeset.ModelID]*tiletree.TileTree
	out     io.Writer
	verbose bool
	closed  bool
}

// NewRunner builds the connection and tile trees described by cfg.
func NewRunner(cfg *config.Config, out io.Writer, verbose bool) (*Runner, error) {
	conn, err := editing.NewConnection(cfg.Briefcase)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	r := &Runner{
		conn:    conn,
		trees:   make(map[changeset.ModelID]*tiletree.TileTree, len(cfg.Models)),
		out:     out,
		verbose: verbose,
	}
	for _, m := range cfg.Models {
		tree, err := tiletree.New(m.TileParams(), conn, modelGeometry{rng: m.Range3()}, placeholderSource{},
			tiletree.WithTolerance(cfg.View.Tolerance),
			tiletree.WithMaxDepth(uint8(cfg.View.MaxDepth)))
		if err != nil {
			return nil, fmt.Errorf("failed to build tile tree for model %s: %w", m.ID, err)
		}
		r.order = append(r.order, m.ModelID())
		r.trees[m.ModelID()] = tree
	}
	return r, nil
}

// Connection returns the runner's connection.
func (r *Runner) Connection() *editing.Connection {
	return r.conn
}

// Tree returns the tile tree for one configured model, or nil.
func (r *Runner) Tree(model changeset.ModelID) *tiletree.TileTree {
	return r.trees[model]
}

// Close disposes every tile tree. Safe to call more than once.
func (r *Runner) Close() {
	if r.closed {
		return
	}
	r.closed = true
	for _, model := range r.order {
		r.trees[model].Dispose()
	}
}

// Run applies every step in order, printing the tree states after each one
// and a final per-model summary.
func (r *Runner) Run(script *Script) error {
	fmt.Fprintf(r.out, "%-5s %-12s %s\n", "STEP", "ACTION", "STATES")
	for i, step := range script.Steps {
		if err := r.apply(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Kind(), err)
		}
		r.printStep(i+1, step)
	}
	r.printSummary()
	return nil
}

func (r *Runner) apply(step Step) error {
	switch {
	case step.EnterScope:
		_, err := r.conn.EnterScope()
		return err

	case len(step.Save) > 0:
		scope := r.conn.Scope()
		if scope == nil {
			return fmt.Errorf("save outside an editing scope")
		}
		return scope.ApplySave(step.SaveModels())

	case step.ExitScope:
		scope := r.conn.Scope()
		if scope == nil {
			return fmt.Errorf("exit_scope without an active scope")
		}
		return scope.Exit()

	default:
		return fmt.Errorf("empty step")
	}
}

func (r *Runner) printStep(n int, step Step) {
	states := make([]string, 0, len(r.order))
	for _, model := range r.order {
		states = append(states, fmt.Sprintf("%s=%s", model, r.trees[model].State()))
	}
	fmt.Fprintf(r.out, "%-5d %-12s %s\n", n, step.Kind(), strings.Join(states, "  "))

	if r.verbose {
		for _, ms := range step.Save {
			fmt.Fprintf(r.out, "      %s: %d element(s)\n", ms.Model, len(ms.Elements))
		}
	}
}

func (r *Runner) printSummary() {
	fmt.Fprintf(r.out, "\n%-20s %-12s %-36s %s\n", "MODEL", "STATE", "RANGE", "HIDDEN")
	for _, model := range r.order {
		tree := r.trees[model]

		hidden := "-"
		if ids := tree.HiddenElements(); len(ids) > 0 {
			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = string(id)
			}
			hidden = strings.Join(parts, ",")
		}

		fmt.Fprintf(r.out, "%-20s %-12s %-36s %s\n", model, tree.State(), tree.Range(), hidden)
	}
}
