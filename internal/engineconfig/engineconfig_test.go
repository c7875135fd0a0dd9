package engineconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoadPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "engine.yaml")
	want := Default()
	want.Placement.Source = SourceSurface
	want.Placement.PlaneHeight = -0.5
	want.Log.Level = "debug"
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Keys missing from the file keep their defaults.
	require.NoError(t, os.WriteFile(path, []byte("placement:\n  enabled: false\n  source: plane\n"), 0644))
	got, err = Load(path)
	require.NoError(t, err)
	assert.False(t, got.Placement.Enabled)
	assert.Equal(t, Default().Window, got.Window)
	assert.Equal(t, Default().Pointer, got.Pointer)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		body    string
		invalid bool
	}{
		{"malformed yaml", "placement: [", false},
		{"unknown source", "placement:\n  source: lidar\n", true},
		{"zero depth", "pointer:\n  default_depth: 0\n", true},
		{"bad level", "log:\n  level: chatty\n", true},
		{"negative speed", "camera:\n  zoom_speed: -1\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))
			cfg, err := Load(path)
			require.Error(t, err)
			assert.Equal(t, Default(), cfg)
			if tt.invalid {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.Window.Width = 0
	err := Save(filepath.Join(t.TempDir(), "engine.yaml"), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
