package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    *Config
		wantErr bool
	}{
		{
			name: "empty document yields defaults",
			yaml: "",
			want: Default(),
		},
		{
			name: "partial document keeps defaults",
			yaml: "capacity: 50\n",
			want: func() *Config {
				c := Default()
				c.Capacity = 50
				return c
			}(),
		},
		{
			name: "full document",
			yaml: "version: \"1.0\"\ncapacity: 10\nmax_steps: 500\nmax_depth: 8\nprompt: \"> \"\nshow_source: false\n",
			want: &Config{Version: "1.0", Capacity: 10, MaxSteps: 500, MaxDepth: 8, Prompt: "> ", ShowSource: false},
		},
		{name: "zero capacity rejected", yaml: "capacity: 0\n", wantErr: true},
		{name: "zero depth rejected", yaml: "max_depth: 0\n", wantErr: true},
		{name: "wrong type rejected", yaml: "capacity: lots\n", wantErr: true},
		{name: "unknown key rejected", yaml: "policy: branch\n", wantErr: true},
		{name: "malformed yaml", yaml: "capacity: [1,\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestParse_SchemaErrorIsInvalidConfig(t *testing.T) {
	_, err := Parse([]byte("max_steps: -1\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestInitAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ttdb")

	path, err := Init(dir)
	require.NoError(t, err)
	assert.FileExists(t, path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg.Capacity = 25
	require.NoError(t, Save(path, cfg))

	// Init must not overwrite an existing file.
	_, err = Init(dir)
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, loaded.Capacity)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDir(t *testing.T) {
	t.Setenv(EnvConfigDir, "")

	dir, err := Dir("/tmp/explicit")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/explicit", dir)

	t.Setenv(EnvConfigDir, "/tmp/from-env")
	dir, err = Dir("/tmp/explicit")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env", dir)
}

func TestDir_DefaultsToHome(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	dir, err := Dir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ttdb"), dir)
}
