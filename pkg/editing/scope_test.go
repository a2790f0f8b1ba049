package editing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/geometry"
)

func activeScope(t *testing.T) *Scope {
	t.Helper()
	conn, err := NewConnection("site-a")
	require.NoError(t, err)
	scope, err := conn.EnterScope()
	require.NoError(t, err)
	return scope
}

func change(id changeset.ElementID, op changeset.Opcode, x float32) changeset.ElementChange {
	r := geometry.NewRange3(geometry.V3(x, 0, 0), geometry.V3(x+1, 1, 1))
	return changeset.ElementChange{ID: id, Op: op, Range: &r}
}

func TestApplySaveAccumulates(t *testing.T) {
	scope := activeScope(t)

	var batches [][]changeset.ModelChanges
	h := scope.GeometryChanged().Listen(func(models []changeset.ModelChanges) {
		batches = append(batches, models)
	})
	defer h.Close()

	first := []changeset.ModelChanges{{
		Model:    "0x1c",
		Elements: []changeset.ElementChange{change("0x100", changeset.OpcodeInsert, 0)},
	}}
	require.NoError(t, scope.ApplySave(first))

	second := []changeset.ModelChanges{{
		Model: "0x1c",
		Elements: []changeset.ElementChange{
			change("0x100", changeset.OpcodeUpdate, 5),
			change("0x200", changeset.OpcodeInsert, 9),
		},
	}}
	require.NoError(t, scope.ApplySave(second))

	// Each save is delivered as its own batch.
	require.Len(t, batches, 2)
	require.Len(t, batches[0], 1)
	assert.Equal(t, changeset.ModelID("0x1c"), batches[0][0].Model)
	require.Len(t, batches[1][0].Elements, 2)

	// The accumulated set nets the two saves together.
	set := scope.ChangesForModel("0x1c")
	require.NotNil(t, set)
	assert.Equal(t, 2, set.Len())

	entry, ok := set.Get("0x100")
	require.True(t, ok)
	assert.Equal(t, changeset.OpcodeUpdate, entry.Op)
	assert.True(t, entry.SessionLocal, "an element born in this scope stays session-local")
	require.NotNil(t, entry.Range)
	assert.Equal(t, geometry.V3(5, 0, 0), entry.Range.Min)

	assert.Nil(t, scope.ChangesForModel("0x2a"), "untouched models have no set")
}

func TestApplySaveValidatesWholeBatch(t *testing.T) {
	scope := activeScope(t)

	var fired int
	h := scope.GeometryChanged().Listen(func([]changeset.ModelChanges) { fired++ })
	defer h.Close()

	batch := []changeset.ModelChanges{
		{
			Model:    "0x1c",
			Elements: []changeset.ElementChange{change("0x100", changeset.OpcodeInsert, 0)},
		},
		{
			Model:    "0x2a",
			Elements: []changeset.ElementChange{{ID: "0x200", Op: "upsert"}},
		},
	}

	err := scope.ApplySave(batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply save")

	// Nothing from the batch landed, not even the valid part.
	assert.Nil(t, scope.ChangesForModel("0x1c"))
	assert.Nil(t, scope.ChangesForModel("0x2a"))
	assert.Zero(t, fired)
}

func TestApplySaveEmptyBatchesAreSilent(t *testing.T) {
	scope := activeScope(t)

	var fired int
	h := scope.GeometryChanged().Listen(func([]changeset.ModelChanges) { fired++ })
	defer h.Close()

	require.NoError(t, scope.ApplySave(nil))
	require.NoError(t, scope.ApplySave([]changeset.ModelChanges{{Model: "0x1c"}}))

	assert.Zero(t, fired)
	assert.Nil(t, scope.ChangesForModel("0x1c"))
}

func TestExitOrdering(t *testing.T) {
	scope := activeScope(t)
	conn := scope.Connection()

	require.NoError(t, scope.ApplySave([]changeset.ModelChanges{{
		Model:    "0x1c",
		Elements: []changeset.ElementChange{change("0x100", changeset.OpcodeInsert, 0)},
	}}))

	var order []string
	hEnding := scope.Ending().Listen(func(s *Scope) {
		order = append(order, "ending")
		// While Ending runs the scope is still attached and its sets are
		// still readable.
		assert.Same(t, scope, conn.Scope())
		set := s.ChangesForModel("0x1c")
		require.NotNil(t, set)
		assert.Equal(t, 1, set.Len())
	})
	defer hEnding.Close()

	hEnded := scope.Ended().Listen(func(id string) {
		order = append(order, "ended")
		assert.Equal(t, scope.ID(), id)
		assert.Nil(t, conn.Scope(), "the scope is detached before Ended fires")
	})
	defer hEnded.Close()

	require.NoError(t, scope.Exit())
	assert.Equal(t, []string{"ending", "ended"}, order)
	assert.Nil(t, conn.Scope())
}

func TestExitedScopeRejectsEverything(t *testing.T) {
	scope := activeScope(t)
	require.NoError(t, scope.Exit())

	err := scope.Exit()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScopeExited)
	assert.True(t, IsScopeExited(err))

	err = scope.ApplySave([]changeset.ModelChanges{{
		Model:    "0x1c",
		Elements: []changeset.ElementChange{change("0x100", changeset.OpcodeInsert, 0)},
	}})
	assert.ErrorIs(t, err, ErrScopeExited)
}
