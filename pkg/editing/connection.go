// Package editing models the editing session lifecycle of one open
// briefcase: at most one scope is active per connection, edits accumulate
// into per-model change sets while it lasts, and interested parties follow
// along through emitter subscriptions.
//
// Connections and scopes are not safe for concurrent use. All calls are
// expected from the single goroutine that delivers editing events, either
// the application's own loop or a Monitor.
package editing

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tessera3d/tessera/internal/logging"
	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/events"
)

// Connection represents one open briefcase.
type Connection struct {
	briefcase string
	log       *slog.Logger

	scope      *Scope
	scopeEnter events.Emitter[*Scope]
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger used by the connection and its scopes. The
// default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(c *Connection) {
		if log != nil {
			c.log = log
		}
	}
}

// NewConnection creates a connection for the named briefcase.
func NewConnection(briefcase string, opts ...Option) (*Connection, error) {
	if briefcase == "" {
		return nil, fmt.Errorf("briefcase name is required")
	}

	c := &Connection{
		briefcase: briefcase,
		log:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Briefcase returns the briefcase name.
func (c *Connection) Briefcase() string {
	return c.briefcase
}

// Scope returns the active editing scope, or nil when none is active.
func (c *Connection) Scope() *Scope {
	return c.scope
}

// ScopeEnter fires with the new scope immediately after one becomes active.
func (c *Connection) ScopeEnter() *events.Emitter[*Scope] {
	return &c.scopeEnter
}

// EnterScope begins an editing scope. It fails with ErrScopeActive while
// one is already active; callers decide whether to reuse the existing scope
// via Scope().
func (c *Connection) EnterScope() (*Scope, error) {
	if c.scope != nil {
		return nil, fmt.Errorf("briefcase %s: %w", c.briefcase, ErrScopeActive)
	}

	s := newScope(c)
	c.scope = s
	c.log.Debug("editing scope entered", "briefcase", c.briefcase, "scope", s.ID())
	c.scopeEnter.Emit(s)
	return s, nil
}

func (c *Connection) detachScope(s *Scope) {
	if c.scope == s {
		c.scope = nil
	}
}

func newScope(c *Connection) *Scope {
	return &Scope{
		id:   uuid.New().String(),
		conn: c,
		log:  c.log,
		sets: make(map[changeset.ModelID]*changeset.ModelSet),
	}
}
