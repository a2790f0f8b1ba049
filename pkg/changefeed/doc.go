// Package changefeed carries editing activity between briefcase processes
// over Redis.
//
// # Events
//
// Two channels exist per briefcase. Save events carry the element change
// records of one commit; scope events mark the begin, ending and ended
// points of an editing scope. Both are published as JSON.
//
// # Journal
//
// Every save event is also written to a ZSET journal keyed by its assigned
// sequence number before being broadcast. Pub/Sub delivery is at-most-once,
// so subscribers that join late or suspect a gap reconcile with
// JournalSince and then continue from the live channel. The journal holds
// exactly the active scope's saves: publishing ScopeEnded clears it, since
// a finished scope's edits are committed state and must not replay as
// pending ones.
//
// # Committed model state
//
// The feed also records each model's committed range in a per-model hash.
// Viewers use it to size tile trees without opening the model store, and to
// re-read ranges after a scope's edits are committed.
package changefeed
