package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/threadwork/internal/config"
)

func TestInitCommandCreatesConfig(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"init", "--dir", dir})
	require.NoError(t, cmd.Execute())

	assert.FileExists(t, filepath.Join(dir, config.Dir, "config.yaml"))
	assert.Contains(t, out.String(), filepath.Join(dir, config.Dir))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Project.Demo.Transfers)
}

func TestDemoRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("THREADWORK_TICK", "not-a-duration")
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"demo", "--dir", dir})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parse env")
}

func TestCommandsRejectArguments(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"init", "extra"})
	assert.Error(t, cmd.Execute())
}
