package changeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera3d/tessera/pkg/geometry"
)

func TestIDValidation(t *testing.T) {
	valid := []string{"0x1", "0xa", "0x1c", "0xdeadbeef", "0xffffffffffffffff"}
	invalid := []string{"", "1c", "0x", "0X1C", "0x1C", "0xg1", "0x11111111111111111", "element-1"}

	for _, id := range valid {
		assert.NoError(t, ElementID(id).Validate(), "element id %q", id)
		assert.NoError(t, ModelID(id).Validate(), "model id %q", id)
	}
	for _, id := range invalid {
		assert.Error(t, ElementID(id).Validate(), "element id %q", id)
		assert.Error(t, ModelID(id).Validate(), "model id %q", id)
	}
}

func TestOpcodeValidation(t *testing.T) {
	for _, op := range []Opcode{OpcodeInsert, OpcodeUpdate, OpcodeDelete} {
		assert.NoError(t, op.Validate())
	}
	assert.Error(t, Opcode("").Validate())
	assert.Error(t, Opcode("upsert").Validate())
}

func TestElementChangeValidation(t *testing.T) {
	r := geometry.NewRange3(geometry.V3(0, 0, 0), geometry.V3(1, 1, 1))

	t.Run("valid with and without range", func(t *testing.T) {
		assert.NoError(t, ElementChange{ID: "0x1", Op: OpcodeInsert, Range: &r}.Validate())
		assert.NoError(t, ElementChange{ID: "0x1", Op: OpcodeDelete}.Validate())
	})

	t.Run("bad id", func(t *testing.T) {
		err := ElementChange{ID: "nope", Op: OpcodeInsert}.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid element id")
	})

	t.Run("bad opcode", func(t *testing.T) {
		err := ElementChange{ID: "0x1", Op: "replace"}.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid opcode")
	})
}

func TestModelChangesValidation(t *testing.T) {
	good := ModelChanges{
		Model: "0x1c",
		Elements: []ElementChange{
			{ID: "0x100", Op: OpcodeInsert},
			{ID: "0x101", Op: OpcodeDelete},
		},
	}
	assert.NoError(t, good.Validate())

	bad := ModelChanges{
		Model:    "0x1c",
		Elements: []ElementChange{{ID: "0x100", Op: "noop"}},
	}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model 0x1c")
}

func TestSaveEventValidation(t *testing.T) {
	t.Run("constructor produces a valid event", func(t *testing.T) {
		e := NewSaveEvent("site-a", []ModelChanges{{Model: "0x1c"}})
		require.NoError(t, e.Validate())
		assert.Equal(t, "site-a", e.Briefcase)
		assert.Zero(t, e.Seq)
		assert.Greater(t, e.SavedAtMs, int64(0))
	})

	t.Run("empty event is valid", func(t *testing.T) {
		e := NewSaveEvent("site-a", nil)
		assert.NoError(t, e.Validate())
	})

	t.Run("rejects bad fields", func(t *testing.T) {
		e := NewSaveEvent("site-a", nil)

		bad := e
		bad.ID = "not-a-uuid"
		assert.Error(t, bad.Validate())

		bad = e
		bad.Briefcase = ""
		assert.Error(t, bad.Validate())

		bad = e
		bad.Seq = -1
		assert.Error(t, bad.Validate())

		bad = e
		bad.Models = []ModelChanges{{Model: "xyz"}}
		assert.Error(t, bad.Validate())
	})
}

func TestSortElementIDs(t *testing.T) {
	ids := []ElementID{"0x10", "0x2", "0xa", "0x1"}
	SortElementIDs(ids)
	assert.Equal(t, []ElementID{"0x1", "0x2", "0xa", "0x10"}, ids)
}
