package scaffold

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckExisting(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		wantErr string
	}{
		{
			name: "clean directory",
		},
		{
			name:    "existing tessera.yml",
			files:   []string{"tessera.yml"},
			wantErr: "tessera.yml",
		},
		{
			name:    "existing session.yml",
			files:   []string{"session.yml"},
			wantErr: "session.yml",
		},
		{
			name:    "both files exist",
			files:   []string{"tessera.yml", "session.yml"},
			wantErr: "project already initialized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for _, f := range tt.files {
				require.NoError(t, os.WriteFile(f, []byte("content"), 0644))
			}

			err := CheckExisting()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), "tessera init --force")
		})
	}
}
