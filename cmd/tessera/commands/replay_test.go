package commands

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera3d/tessera/internal/scaffold"
)

// TestReplayCommand runs the scaffolded sample session end to end: init
// writes the project files, replay walks them through in-process tile trees.
func TestReplayCommand(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, scaffold.Initialize(false))

	assert.NoError(t, runReplay(replayCmd, nil))
}

func TestReplayCommandMissingConfig(t *testing.T) {
	chdir(t, t.TempDir())

	err := runReplay(replayCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestReplayCommandBriefcaseMismatch(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, scaffold.Initialize(false))

	script, err := os.ReadFile("session.yml")
	require.NoError(t, err)
	mismatched := strings.Replace(string(script), "briefcase: demo", "briefcase: someone-else", 1)
	require.NoError(t, os.WriteFile("session.yml", []byte(mismatched), 0644))

	err = runReplay(replayCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script targets a different briefcase")
}
