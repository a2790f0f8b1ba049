package changefeed

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScopeEventKind identifies a point in the editing scope lifecycle.
type ScopeEventKind string

const (
	// ScopeBegin announces that an editing scope became active.
	ScopeBegin ScopeEventKind = "begin"

	// ScopeEnding announces that the scope is exiting; accumulated edits
	// are about to be committed.
	ScopeEnding ScopeEventKind = "ending"

	// ScopeEnded announces that the scope is gone.
	ScopeEnded ScopeEventKind = "ended"
)

// Validate checks if the kind is one of the valid predefined values.
func (k ScopeEventKind) Validate() error {
	switch k {
	case ScopeBegin, ScopeEnding, ScopeEnded:
		return nil
	default:
		return fmt.Errorf("invalid scope event kind: %q", string(k))
	}
}

// ScopeEvent is a scope lifecycle notification carried on the feed.
type ScopeEvent struct {
	Kind    ScopeEventKind `json:"kind"`
	ScopeID string         `json:"scope_id"`
	AtMs    int64          `json:"at_ms"`
}

// NewScopeEvent builds a scope event stamped with the current time.
func NewScopeEvent(kind ScopeEventKind, scopeID string) ScopeEvent {
	return ScopeEvent{
		Kind:    kind,
		ScopeID: scopeID,
		AtMs:    time.Now().UnixMilli(),
	}
}

// Validate checks all fields of the scope event.
func (e ScopeEvent) Validate() error {
	if err := e.Kind.Validate(); err != nil {
		return err
	}
	if _, err := uuid.Parse(e.ScopeID); err != nil {
		return fmt.Errorf("invalid scope id: %q", e.ScopeID)
	}
	if e.AtMs < 0 {
		return fmt.Errorf("scope event %s: negative timestamp %d", e.ScopeID, e.AtMs)
	}
	return nil
}
