// Package changeset defines element change records and the net per-model
// change sets accumulated while an editing scope is active.
package changeset

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tessera3d/tessera/pkg/geometry"
)

// idPattern matches the hex id form used for elements and models: a 0x
// prefix followed by 1 to 16 lowercase hex digits.
var idPattern = regexp.MustCompile(`^0x[0-9a-f]{1,16}$`)

// ElementID identifies one element within a briefcase.
type ElementID string

// Validate checks that the id is a well-formed hex id.
func (id ElementID) Validate() error {
	if !idPattern.MatchString(string(id)) {
		return fmt.Errorf("invalid element id: %q", string(id))
	}
	return nil
}

// ModelID identifies one geometric model within a briefcase.
type ModelID string

// Validate checks that the id is a well-formed hex id.
func (id ModelID) Validate() error {
	if !idPattern.MatchString(string(id)) {
		return fmt.Errorf("invalid model id: %q", string(id))
	}
	return nil
}

// Opcode describes what a change record did to an element.
type Opcode string

const (
	// OpcodeInsert records an element created by the change.
	OpcodeInsert Opcode = "insert"

	// OpcodeUpdate records an element whose geometry or placement changed.
	OpcodeUpdate Opcode = "update"

	// OpcodeDelete records an element removed by the change.
	OpcodeDelete Opcode = "delete"
)

// Validate checks if the opcode is one of the valid predefined values.
func (o Opcode) Validate() error {
	switch o {
	case OpcodeInsert, OpcodeUpdate, OpcodeDelete:
		return nil
	default:
		return fmt.Errorf("invalid opcode: %q", string(o))
	}
}

// ElementChange is one element-level change record within a save. Range is
// the element's bounding range after the change; records for deleted
// elements, and records produced by sources that cannot compute a range,
// carry none.
type ElementChange struct {
	ID    ElementID        `json:"id"`
	Op    Opcode           `json:"op"`
	Range *geometry.Range3 `json:"range,omitempty"`
}

// Validate checks the record's id and opcode.
func (c ElementChange) Validate() error {
	if err := c.ID.Validate(); err != nil {
		return err
	}
	if err := c.Op.Validate(); err != nil {
		return fmt.Errorf("element %s: %w", c.ID, err)
	}
	return nil
}

// ModelChanges groups the element change records of one save that belong to
// a single model.
type ModelChanges struct {
	Model    ModelID         `json:"model_id"`
	Elements []ElementChange `json:"elements"`
}

// Validate checks the model id and every element record.
func (m ModelChanges) Validate() error {
	if err := m.Model.Validate(); err != nil {
		return err
	}
	for _, el := range m.Elements {
		if err := el.Validate(); err != nil {
			return fmt.Errorf("model %s: %w", m.Model, err)
		}
	}
	return nil
}

// SortElementIDs orders ids by their numeric value in place. Ids that fail
// to parse sort after valid ones, by string.
func SortElementIDs(ids []ElementID) {
	sort.Slice(ids, func(i, j int) bool {
		a, aerr := parseID(ids[i])
		b, berr := parseID(ids[j])
		if aerr != nil || berr != nil {
			if (aerr == nil) != (berr == nil) {
				return aerr == nil
			}
			return ids[i] < ids[j]
		}
		return a < b
	})
}

func parseID(id ElementID) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(string(id), "0x"), 16, 64)
}
