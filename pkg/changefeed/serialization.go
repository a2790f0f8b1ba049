package changefeed

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/geometry"
)

// Serialization helpers for the model committed-state hash
//
// Redis stores hashes as string-to-string maps. The range is JSON-encoded
// into a single field; scalar fields stay individually readable.

// ModelState is the committed state of one model as recorded on the feed:
// its range after the last commit and when it was written.
type ModelState struct {
	Model       changeset.ModelID `json:"model_id"`
	Range       geometry.Range3   `json:"range"`
	UpdatedAtMs int64             `json:"updated_at_ms"`
}

// ModelStateToHash converts a ModelState to Redis hash format.
func ModelStateToHash(s *ModelState) (map[string]interface{}, error) {
	rangeJSON, err := json.Marshal(s.Range)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model range: %w", err)
	}

	hash := map[string]interface{}{
		"model_id":      string(s.Model),
		"range":         string(rangeJSON),
		"updated_at_ms": s.UpdatedAtMs,
	}
	return hash, nil
}

// HashToModelState converts a Redis hash back to a ModelState.
func HashToModelState(hash map[string]string) (*ModelState, error) {
	var rng geometry.Range3
	if rangeJSON := hash["range"]; rangeJSON != "" {
		if err := json.Unmarshal([]byte(rangeJSON), &rng); err != nil {
			return nil, fmt.Errorf("failed to unmarshal model range: %w", err)
		}
	} else {
		rng = geometry.EmptyRange3()
	}

	updatedAtMs, err := strconv.ParseInt(hash["updated_at_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at_ms field: %w", err)
	}

	state := &ModelState{
		Model:       changeset.ModelID(hash["model_id"]),
		Range:       rng,
		UpdatedAtMs: updatedAtMs,
	}
	return state, nil
}
