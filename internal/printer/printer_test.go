package printer

import (
	"io"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureStderr runs fn with os.Stderr swapped for a pipe and returns what
// fn wrote. Color is disabled so assertions see plain text.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()

	wasNoColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = wasNoColor }()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = orig }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestErrorReturnsTitleOnly(t *testing.T) {
	cases := []struct {
		name        string
		suggestions []string
	}{
		{"no suggestions", nil},
		{"one suggestion", []string{"Try this fix"}},
		{"several suggestions", []string{"First option", "Second option"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			captureStderr(t, func() {
				err = Error("feed is unreachable", "Details here", tc.suggestions)
			})
			require.Error(t, err)
			assert.Equal(t, "feed is unreachable", err.Error())
		})
	}
}

func TestErrorLayout(t *testing.T) {
	t.Run("single suggestion prints plain", func(t *testing.T) {
		out := captureStderr(t, func() {
			Error("bad flag", "The value is not a duration", []string{"Use 1h or 30m"})
		})
		assert.Contains(t, out, "bad flag\n\n")
		assert.Contains(t, out, "The value is not a duration\n")
		assert.Contains(t, out, "Use 1h or 30m\n")
		assert.NotContains(t, out, "Either:")
	})

	t.Run("multiple suggestions are numbered", func(t *testing.T) {
		out := captureStderr(t, func() {
			Error("bad flag", "Explanation", []string{"First option", "Second option"})
		})
		assert.Contains(t, out, "Either:\n")
		assert.Contains(t, out, "  1. First option\n")
		assert.Contains(t, out, "  2. Second option\n")
	})
}

func TestErrorWithContext(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		var err error
		captureStderr(t, func() {
			err = ErrorWithContext("feed is unreachable", "Explanation",
				map[string]string{"Briefcase": "demo", "Redis": "localhost:6379"},
				[]string{"Start Redis first"})
		})
		require.Error(t, err)
		assert.Equal(t, "feed is unreachable", err.Error())
	})

	t.Run("context keys print sorted", func(t *testing.T) {
		out := captureStderr(t, func() {
			ErrorWithContext("title", "", map[string]string{
				"Redis":     "localhost:6379",
				"Briefcase": "demo",
				"Model":     "0x1c",
			}, nil)
		})
		briefcase := "  Briefcase: demo\n"
		model := "  Model: 0x1c\n"
		redis := "  Redis: localhost:6379\n"
		assert.Contains(t, out, briefcase+model+redis)
	})
}
