// Package filter narrows feed output for the watch command.
package filter

import (
	"github.com/tessera3d/tessera/pkg/changeset"
)

// Criteria defines filtering criteria for save events.
// All filters are ANDed together - an event must match ALL criteria to pass.
type Criteria struct {
	SinceTimestampMs int64             // Unix timestamp in milliseconds, 0 = no filter
	UntilTimestampMs int64             // Unix timestamp in milliseconds, 0 = no filter
	Model            changeset.ModelID // Only saves touching this model, empty = no filter
}

// Matches returns true if the save event matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(e *changeset.SaveEvent) bool {
	if c.SinceTimestampMs > 0 && e.SavedAtMs < c.SinceTimestampMs {
		return false
	}
	if c.UntilTimestampMs > 0 && e.SavedAtMs > c.UntilTimestampMs {
		return false
	}

	if c.Model != "" {
		touched := false
		for _, mc := range e.Models {
			if mc.Model == c.Model {
				touched = true
				break
			}
		}
		if !touched {
			return false
		}
	}

	return true
}

// HasFilters returns true if any filters are active, so the watch header
// can say when output is being narrowed.
func (c *Criteria) HasFilters() bool {
	return c.SinceTimestampMs > 0 ||
		c.UntilTimestampMs > 0 ||
		c.Model != ""
}
