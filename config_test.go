package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("testdata/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "gophersat", cfg.Engine)
	assert.Equal(t, 100, cfg.CountLimit)
	assert.Equal(t, map[string]string{"feas_tol": "1e-7"}, cfg.Options)

	cfg, err = loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad engine", "engine: cplex\n", "Engine"},
		{"negative limit", "count_limit: -1\n", "CountLimit"},
		{"bad level", "log:\n  level: loud\n", "Level"},
		{"not yaml", "engine: [\n", "could not parse"},
	}
	for _, tt := range tests {
		path := filepath.Join(dir, tt.name+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
		_, err := loadConfig(path)
		require.Error(t, err, tt.name)
		assert.Contains(t, err.Error(), tt.want, tt.name)
	}
	_, err := loadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
