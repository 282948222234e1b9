package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultBranchPrefix, cfg.BranchPrefix)
	assert.Equal(t, DefaultBranch, cfg.DefaultBranch)
	assert.Equal(t, DefaultMaxDiffBytes, cfg.MaxDiffBytes)
	assert.Equal(t, "cli", cfg.Assistant.Backend)
	assert.Equal(t, "claude", cfg.Assistant.Command)
	assert.Equal(t, []string{"--print"}, cfg.Assistant.Args)
	assert.Equal(t, "gh", cfg.Host.Backend)
	assert.Equal(t, "file", cfg.Tasks.Backend)
	assert.Equal(t, DefaultActionItemPatterns, cfg.ActionItemPatterns)
	assert.True(t, cfg.Output.Color)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".gitpilot"), cfg.DataDir)
	assert.Equal(t, filepath.Join(home, ".gitpilot", DefaultDBName), cfg.DBPath())
	assert.Equal(t, filepath.Join(home, ".gitpilot", "tasks.yaml"), cfg.Tasks.File)
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
data_dir: ` + dir + `
branch_prefix: "wip/"
assistant:
  backend: api
  model: test-model
host:
  backend: api
tasks:
  backend: command
  command: pm
  args: ["add", "--title", "{title}"]
  project: platform
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "wip/", cfg.BranchPrefix)
	assert.Equal(t, "api", cfg.Assistant.Backend)
	assert.Equal(t, "test-model", cfg.Assistant.Model)
	assert.Equal(t, "claude", cfg.Assistant.Command, "unset keys keep defaults")
	assert.Equal(t, "api", cfg.Host.Backend)
	assert.Equal(t, "command", cfg.Tasks.Backend)
	assert.Equal(t, "pm", cfg.Tasks.Command)
	assert.Equal(t, []string{"add", "--title", "{title}"}, cfg.Tasks.Args)
	assert.Equal(t, "platform", cfg.Tasks.Project)
	assert.Equal(t, filepath.Join(dir, "activity.db"), cfg.DBPath())
	assert.Equal(t, filepath.Join(dir, "gitpilot.log"), cfg.LogPath())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GITPILOT_HOST_BACKEND", "api")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "api", cfg.Host.Backend)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("branch_prefix: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x", "y"), expandPath("~/x/y"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
	assert.Equal(t, "relative", expandPath("relative"))
}

func TestLoad_DefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".config", "gitpilot", "config.yaml"), DefaultPath())
	assert.Equal(t, DefaultPath(), Path(""))
	assert.Equal(t, "/etc/gitpilot.yaml", Path("/etc/gitpilot.yaml"))

	require.NoError(t, os.MkdirAll(ConfigDir(), 0o755))
	require.NoError(t, os.WriteFile(DefaultPath(), []byte("branch_prefix: \"topic/\"\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "topic/", cfg.BranchPrefix)
	assert.Equal(t, filepath.Join(home, ".gitpilot"), cfg.DataDir)
}

func TestLoad_CleanBranchesFetchPrune(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, cfg.CleanBranches.FetchPrune, "fetching is opt-in")

	t.Setenv("GITPILOT_CLEAN_BRANCHES_FETCH_PRUNE", "true")
	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.True(t, cfg.CleanBranches.FetchPrune)
}
