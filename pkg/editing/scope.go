package editing

import (
	"fmt"
	"log/slog"

	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/events"
)

// Scope is one editing session. It accumulates the net geometry changes of
// every save into per-model change sets and publishes three events:
// GeometryChanged after each save that touched geometry, Ending when Exit
// begins (the accumulated sets are still readable), and Ended once the
// scope is fully detached from its connection.
type Scope struct {
	id   string
	conn *Connection
	log  *slog.Logger

	sets   map[changeset.ModelID]*changeset.ModelSet
	exited bool

	geometryChanged events.Emitter[[]changeset.ModelChanges]
	ending          events.Emitter[*Scope]
	ended           events.Emitter[string]
}

// ID returns the scope's unique id.
func (s *Scope) ID() string {
	return s.id
}

// Connection returns the connection this scope belongs to.
func (s *Scope) Connection() *Connection {
	return s.conn
}

// GeometryChanged fires after each save, delivering that save's per-model
// change records. Subscribers filter by model id.
func (s *Scope) GeometryChanged() *events.Emitter[[]changeset.ModelChanges] {
	return &s.geometryChanged
}

// Ending fires when Exit begins. The scope's change sets remain readable
// during delivery; this is the last chance to fold accumulated state away.
func (s *Scope) Ending() *events.Emitter[*Scope] {
	return &s.ending
}

// Ended fires with the scope id after the scope is detached from its
// connection.
func (s *Scope) Ended() *events.Emitter[string] {
	return &s.ended
}

// ChangesForModel returns the net change set accumulated for the model, or
// nil when the scope has not touched it. The returned set is live; callers
// must treat it as read-only.
func (s *Scope) ChangesForModel(model changeset.ModelID) *changeset.ModelSet {
	return s.sets[model]
}

// ApplySave folds one save's change records into the scope and notifies
// GeometryChanged subscribers. The whole batch is validated before any of
// it is applied. Saves that carry no element records produce no event.
func (s *Scope) ApplySave(models []changeset.ModelChanges) error {
	if s.exited {
		return fmt.Errorf("scope %s: %w", s.id, ErrScopeExited)
	}

	for _, mc := range models {
		if err := mc.Validate(); err != nil {
			return fmt.Errorf("failed to apply save: %w", err)
		}
	}

	changed := make([]changeset.ModelChanges, 0, len(models))
	for _, mc := range models {
		if len(mc.Elements) == 0 {
			continue
		}
		set, ok := s.sets[mc.Model]
		if !ok {
			set = changeset.NewModelSet(mc.Model)
			s.sets[mc.Model] = set
		}
		for _, rec := range mc.Elements {
			set.Apply(rec)
		}
		changed = append(changed, mc)
	}

	if len(changed) == 0 {
		return nil
	}

	s.log.Debug("save applied", "scope", s.id, "models", len(changed))
	s.geometryChanged.Emit(changed)
	return nil
}

// Exit ends the scope. Ending subscribers run first, then the scope is
// detached from its connection, then Ended fires. A second Exit fails with
// ErrScopeExited.
func (s *Scope) Exit() error {
	if s.exited {
		return fmt.Errorf("scope %s: %w", s.id, ErrScopeExited)
	}
	s.exited = true

	s.log.Debug("editing scope ending", "scope", s.id)
	s.ending.Emit(s)
	s.conn.detachScope(s)
	s.ended.Emit(s.id)
	s.log.Debug("editing scope ended", "scope", s.id)
	return nil
}
