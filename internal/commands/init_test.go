package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/stmtcheck/internal/config"
)

func TestInit_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	out, err := runStmtcheck(t, dir, nil, "init", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Wrote "+filepath.Join(dir, config.FileName))

	data, err := os.ReadFile(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	contents := string(data)
	assert.Contains(t, contents, "model: gpt-4o-2024-08-06")
	assert.Contains(t, contents, "max_pages: 1000")
	assert.NotContains(t, contents, "api_key")

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestInit_DefaultsToWorkingDir(t *testing.T) {
	dir := t.TempDir()
	_, err := runStmtcheck(t, dir, nil, "init")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, config.FileName))
	assert.NoError(t, err)
}

func TestInit_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "new", "project")
	_, err := runStmtcheck(t, t.TempDir(), nil, "init", dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, config.FileName))
	assert.NoError(t, err)
}

func TestInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("report:\n  sample: 9\n"), 0o644))

	out, err := runStmtcheck(t, dir, nil, "init", dir)
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, out, "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "report:\n  sample: 9\n", string(data))

	_, err = runStmtcheck(t, dir, nil, "init", dir, "--force")
	require.NoError(t, err)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Report.Sample)
}

func TestVersion(t *testing.T) {
	out, err := runStmtcheck(t, t.TempDir(), nil, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "stmtcheck version dev")
}
