package changefeed

import (
	"fmt"

	"github.com/tessera3d/tessera/pkg/changeset"
)

// Redis key pattern helpers
//
// All keys and Pub/Sub channels are namespaced by briefcase name so that
// multiple briefcases can share a single Redis server.
//
// Key pattern: tessera:{briefcase}:{entity}[:{id}]
// Channel pattern: tessera:{briefcase}:{event_type}_events

// SaveEventsChannel returns the Pub/Sub channel for save events.
// Pattern: tessera:{briefcase}:save_events
func SaveEventsChannel(briefcase string) string {
	return fmt.Sprintf("tessera:%s:save_events", briefcase)
}

// ScopeEventsChannel returns the Pub/Sub channel for scope lifecycle events.
// Pattern: tessera:{briefcase}:scope_events
func ScopeEventsChannel(briefcase string) string {
	return fmt.Sprintf("tessera:%s:scope_events", briefcase)
}

// JournalKey returns the Redis key for the save-event journal ZSET, scored
// by save sequence number.
// Pattern: tessera:{briefcase}:journal
func JournalKey(briefcase string) string {
	return fmt.Sprintf("tessera:%s:journal", briefcase)
}

// SeqKey returns the Redis key for the save sequence counter.
// Pattern: tessera:{briefcase}:seq
func SeqKey(briefcase string) string {
	return fmt.Sprintf("tessera:%s:seq", briefcase)
}

// ModelKey returns the Redis key for a model's committed-state hash.
// Pattern: tessera:{briefcase}:model:{model_id}
func ModelKey(briefcase string, model changeset.ModelID) string {
	return fmt.Sprintf("tessera:%s:model:%s", briefcase, model)
}

// ModelsKey returns the Redis key for the set of known model ids.
// Pattern: tessera:{briefcase}:models
func ModelsKey(briefcase string) string {
	return fmt.Sprintf("tessera:%s:models", briefcase)
}

// JournalScore converts a save sequence number to a ZSET score.
func JournalScore(seq int64) float64 {
	return float64(seq)
}

// SeqFromScore converts a ZSET score back to a save sequence number.
func SeqFromScore(score float64) int64 {
	return int64(score)
}
