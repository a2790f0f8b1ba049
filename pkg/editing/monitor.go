package editing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tessera3d/tessera/internal/logging"
	"github.com/tessera3d/tessera/pkg/changefeed"
	"github.com/tessera3d/tessera/pkg/changeset"
)

// Monitor drives a Connection from a briefcase's change feed. One goroutine
// consumes scope and save events and applies them in arrival order, which
// gives every tile tree hanging off the connection the serial event delivery
// it requires: the monitor goroutine is the editing goroutine.
//
// Feed events describe a remote editing session, so the monitor tolerates
// what a live feed can produce: saves for a scope whose begin predates the
// subscription, duplicate lifecycle notifications, and events that fail to
// apply. All of these are logged and skipped rather than stopping the loop.
type Monitor struct {
	conn *Connection
	feed *changefeed.Client
	log  *slog.Logger

	afterSeq     int64
	lastSeq      int64
	saveApplied  func(*changeset.SaveEvent)
	scopeApplied func(changefeed.ScopeEvent)

	// remoteScope is the feed's id for the scope the connection currently
	// mirrors. The local scope has its own id.
	remoteScope string
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithMonitorLogger sets the monitor's logger. The default discards
// everything.
func WithMonitorLogger(log *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		if log != nil {
			m.log = log
		}
	}
}

// WithAfterSeq starts save replay strictly after the given journal sequence
// number. Zero, the default, replays the whole journal.
func WithAfterSeq(seq int64) MonitorOption {
	return func(m *Monitor) {
		m.afterSeq = seq
	}
}

// WithSaveApplied registers a callback invoked on the monitor goroutine
// after each save event is folded into the scope, journal replay included.
// Scope transitions are observable through the connection's own emitters;
// this hook exists for consumers that need the save's feed metadata.
func WithSaveApplied(fn func(*changeset.SaveEvent)) MonitorOption {
	return func(m *Monitor) {
		m.saveApplied = fn
	}
}

// WithScopeApplied registers a callback invoked on the monitor goroutine
// after a scope event changes the connection's editing state. Events the
// monitor skips, like duplicate begins or an ended following the ending
// that already closed the scope, never reach the callback.
func WithScopeApplied(fn func(changefeed.ScopeEvent)) MonitorOption {
	return func(m *Monitor) {
		m.scopeApplied = fn
	}
}

// NewMonitor creates a monitor that applies feed activity to conn.
func NewMonitor(conn *Connection, feed *changefeed.Client, opts ...MonitorOption) (*Monitor, error) {
	if conn == nil {
		return nil, fmt.Errorf("connection is required")
	}
	if feed == nil {
		return nil, fmt.Errorf("feed client is required")
	}

	m := &Monitor{
		conn: conn,
		feed: feed,
		log:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.lastSeq = m.afterSeq
	return m, nil
}

// Run subscribes to the feed, replays the save journal past the configured
// sequence number, then applies live events until ctx is cancelled or the
// feed connection goes away. Per-event failures are logged and skipped.
//
// Everything that reads the connection or its tile trees must run on this
// goroutine while Run is active.
func (m *Monitor) Run(ctx context.Context) error {
	scopeSub, err := m.feed.SubscribeScopeEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to scope events: %w", err)
	}
	defer scopeSub.Close()

	saveSub, err := m.feed.SubscribeSaves(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to save events: %w", err)
	}
	defer saveSub.Close()

	// Catch up from the journal after subscribing, so saves published in
	// between are seen exactly once: the replay advances lastSeq past them
	// and the live copies are dropped as duplicates.
	journal, err := m.feed.JournalSince(ctx, m.afterSeq)
	if err != nil {
		return fmt.Errorf("failed to replay save journal: %w", err)
	}
	for i := range journal {
		m.applySave(&journal[i])
	}
	m.log.Info("monitor started",
		"briefcase", m.conn.Briefcase(), "replayed", len(journal), "after_seq", m.afterSeq)

	for {
		select {
		case <-ctx.Done():
			m.log.Info("monitor stopped", "briefcase", m.conn.Briefcase())
			return nil

		case e, ok := <-scopeSub.Events():
			if !ok {
				return nil
			}
			m.applyScopeEvent(e)

		case e, ok := <-saveSub.Events():
			if !ok {
				return nil
			}
			m.applySave(e)

		case err, ok := <-scopeSub.Errors():
			if !ok {
				return nil
			}
			m.log.Warn("scope subscription error", "error", err)

		case err, ok := <-saveSub.Errors():
			if !ok {
				return nil
			}
			m.log.Warn("save subscription error", "error", err)
		}
	}
}

// applyScopeEvent mirrors one remote scope lifecycle notification onto the
// connection.
func (m *Monitor) applyScopeEvent(e changefeed.ScopeEvent) {
	switch e.Kind {
	case changefeed.ScopeBegin:
		if m.conn.Scope() != nil {
			m.log.Warn("scope begin while one is active; skipping",
				"remote_scope", e.ScopeID, "active_remote_scope", m.remoteScope)
			return
		}
		if _, err := m.conn.EnterScope(); err != nil {
			m.log.Warn("failed to enter scope", "remote_scope", e.ScopeID, "error", err)
			return
		}
		m.remoteScope = e.ScopeID
		m.log.Debug("remote scope entered", "remote_scope", e.ScopeID)
		if m.scopeApplied != nil {
			m.scopeApplied(e)
		}

	case changefeed.ScopeEnding:
		m.exitScope(e, "ending")

	case changefeed.ScopeEnded:
		// Normally the ending event already closed the scope; ended only
		// matters when ending was lost.
		if m.conn.Scope() == nil {
			m.log.Debug("scope already closed", "remote_scope", e.ScopeID)
			return
		}
		m.exitScope(e, "ended")

	default:
		m.log.Warn("unknown scope event kind; skipping", "kind", string(e.Kind))
	}
}

func (m *Monitor) exitScope(e changefeed.ScopeEvent, kind string) {
	scope := m.conn.Scope()
	if scope == nil {
		m.log.Debug("scope event without an active scope; skipping",
			"kind", kind, "remote_scope", e.ScopeID)
		return
	}
	if m.remoteScope != "" && m.remoteScope != e.ScopeID {
		m.log.Warn("scope event for a different scope; skipping",
			"kind", kind, "remote_scope", e.ScopeID, "active_remote_scope", m.remoteScope)
		return
	}
	if err := scope.Exit(); err != nil {
		m.log.Warn("failed to exit scope", "remote_scope", e.ScopeID, "error", err)
		return
	}
	m.remoteScope = ""
	m.log.Debug("remote scope exited", "remote_scope", e.ScopeID, "on", kind)
	if m.scopeApplied != nil {
		m.scopeApplied(e)
	}
}

// applySave folds one save event into the connection's scope. Saves arriving
// without an active scope happen when the monitor attached mid-session and
// the begin notification predates the subscription; the scope is entered on
// the spot.
func (m *Monitor) applySave(e *changeset.SaveEvent) {
	if e.Seq != 0 && e.Seq <= m.lastSeq {
		m.log.Debug("duplicate save skipped", "save", e.ID, "seq", e.Seq)
		return
	}

	scope := m.conn.Scope()
	if scope == nil {
		m.log.Warn("save with no active scope; entering one", "save", e.ID, "seq", e.Seq)
		var err error
		scope, err = m.conn.EnterScope()
		if err != nil {
			m.log.Warn("failed to enter scope for save", "save", e.ID, "error", err)
			return
		}
	}

	if err := scope.ApplySave(e.Models); err != nil {
		m.log.Warn("failed to apply save", "save", e.ID, "seq", e.Seq, "error", err)
		return
	}
	if e.Seq > m.lastSeq {
		m.lastSeq = e.Seq
	}
	m.log.Debug("save applied", "save", e.ID, "seq", e.Seq, "models", len(e.Models))

	if m.saveApplied != nil {
		m.saveApplied(e)
	}
}
