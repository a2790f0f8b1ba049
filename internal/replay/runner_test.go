package replay

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera3d/tessera/internal/config"
	"github.com/tessera3d/tessera/pkg/editing"
	"github.com/tessera3d/tessera/pkg/tiletree"
)

func runnerConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Version:   "1",
		Briefcase: "demo",
		Redis:     config.RedisConfig{Addr: "localhost:6379"},
		Models: []config.Model{
			{ID: "0x1c", Range: [6]float32{0, 0, 0, 10, 10, 10}},
			{ID: "0x2a", Range: [6]float32{20, 0, 0, 30, 10, 10}},
		},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunnerSession(t *testing.T) {
	var out bytes.Buffer
	r, err := NewRunner(runnerConfig(t), &out, false)
	require.NoError(t, err)
	defer r.Close()

	script := &Script{
		Briefcase: "demo",
		Steps: []Step{
			{EnterScope: true},
			{Save: []ModelSave{{
				Model:    "0x1c",
				Elements: []ElementEdit{{ID: "0x100", Op: "insert", Range: &[6]float32{0, 0, 0, 2, 2, 2}}},
			}}},
			{ExitScope: true},
		},
	}
	require.NoError(t, r.Run(script))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 4)

	// Step lines carry the per-model states at that point.
	assert.Contains(t, lines[1], "enter_scope")
	assert.Contains(t, lines[1], "0x1c=interactive")
	assert.Contains(t, lines[1], "0x2a=interactive")

	assert.Contains(t, lines[2], "save")
	assert.Contains(t, lines[2], "0x1c=dynamic")
	assert.Contains(t, lines[2], "0x2a=interactive", "a save for one model leaves the other interactive")

	assert.Contains(t, lines[3], "exit_scope")
	assert.Contains(t, lines[3], "0x1c=static")
	assert.Contains(t, lines[3], "0x2a=static")

	// Final summary reports committed ranges again.
	assert.Contains(t, out.String(), "MODEL")
	assert.Equal(t, tiletree.StateStatic, r.Tree("0x1c").State())
	assert.Equal(t, tiletree.StateStatic, r.Tree("0x2a").State())
}

func TestRunnerVerboseOutput(t *testing.T) {
	var out bytes.Buffer
	r, err := NewRunner(runnerConfig(t), &out, true)
	require.NoError(t, err)
	defer r.Close()

	script := &Script{
		Briefcase: "demo",
		Steps: []Step{
			{EnterScope: true},
			{Save: []ModelSave{{
				Model: "0x1c",
				Elements: []ElementEdit{
					{ID: "0x100", Op: "insert", Range: &[6]float32{0, 0, 0, 2, 2, 2}},
					{ID: "0x200", Op: "insert", Range: &[6]float32{3, 3, 3, 4, 4, 4}},
				},
			}}},
		},
	}
	require.NoError(t, r.Run(script))

	assert.Contains(t, out.String(), "0x1c: 2 element(s)")
	assert.Equal(t, tiletree.StateDynamic, r.Tree("0x1c").State())
}

func TestRunnerStepErrors(t *testing.T) {
	t.Run("save outside a scope", func(t *testing.T) {
		var out bytes.Buffer
		r, err := NewRunner(runnerConfig(t), &out, false)
		require.NoError(t, err)
		defer r.Close()

		script := &Script{Briefcase: "demo", Steps: []Step{
			{Save: []ModelSave{{Model: "0x1c", Elements: []ElementEdit{{ID: "0x100", Op: "insert"}}}}},
		}}
		err = r.Run(script)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "step 1 (save): save outside an editing scope")
	})

	t.Run("exit without a scope", func(t *testing.T) {
		var out bytes.Buffer
		r, err := NewRunner(runnerConfig(t), &out, false)
		require.NoError(t, err)
		defer r.Close()

		script := &Script{Briefcase: "demo", Steps: []Step{{ExitScope: true}}}
		err = r.Run(script)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "step 1 (exit_scope): exit_scope without an active scope")
	})

	t.Run("double enter", func(t *testing.T) {
		var out bytes.Buffer
		r, err := NewRunner(runnerConfig(t), &out, false)
		require.NoError(t, err)
		defer r.Close()

		script := &Script{Briefcase: "demo", Steps: []Step{{EnterScope: true}, {EnterScope: true}}}
		err = r.Run(script)
		require.Error(t, err)
		assert.ErrorIs(t, err, editing.ErrScopeActive)
		assert.Contains(t, err.Error(), "step 2 (enter_scope)")
	})
}

func TestRunnerClose(t *testing.T) {
	var out bytes.Buffer
	r, err := NewRunner(runnerConfig(t), &out, false)
	require.NoError(t, err)

	r.Close()
	assert.Equal(t, tiletree.StateDisposed, r.Tree("0x1c").State())
	assert.NotPanics(t, r.Close)
}
