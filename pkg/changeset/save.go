package changeset

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SaveEvent is the per-save batch of change records published after a
// briefcase commits edits. Seq is assigned by the feed when the event is
// journaled; it is zero until then.
type SaveEvent struct {
	ID        string         `json:"save_id"`
	Seq       int64          `json:"seq"`
	Briefcase string         `json:"briefcase"`
	Models    []ModelChanges `json:"models"`
	SavedAtMs int64          `json:"saved_at_ms"`
}

// NewSaveEvent builds a save event for the given per-model changes with a
// fresh id and the current timestamp.
func NewSaveEvent(briefcase string, models []ModelChanges) SaveEvent {
	return SaveEvent{
		ID:        uuid.New().String(),
		Briefcase: briefcase,
		Models:    models,
		SavedAtMs: time.Now().UnixMilli(),
	}
}

// Validate checks all fields of the save event. An event with no model
// changes is valid; applying it is a no-op.
func (e SaveEvent) Validate() error {
	if _, err := uuid.Parse(e.ID); err != nil {
		return fmt.Errorf("invalid save id: %q", e.ID)
	}
	if e.Briefcase == "" {
		return fmt.Errorf("save %s: briefcase is required", e.ID)
	}
	if e.Seq < 0 {
		return fmt.Errorf("save %s: negative seq %d", e.ID, e.Seq)
	}
	if e.SavedAtMs < 0 {
		return fmt.Errorf("save %s: negative timestamp %d", e.ID, e.SavedAtMs)
	}
	for _, m := range e.Models {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("save %s: %w", e.ID, err)
		}
	}
	return nil
}
