package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Default(t *testing.T) {
	t.Parallel()

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxIterations, cfg.Loop.MaxIterations)
	assert.Equal(t, DefaultStopWord, cfg.Loop.StopWord)
	assert.Equal(t, DefaultStallThreshold, cfg.Loop.StallThreshold)
	assert.True(t, cfg.Loop.Checkpoints)
	assert.Equal(t, DefaultAgentCommand, cfg.Agent.Command)
}

func TestLoad_ValidFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configContent := `loop:
  max_iterations: 100
  stop_word: FINISHED
  stall_threshold: 8
  checkpoints: false
agent:
  command: my-agent
  args: ["--fast"]
log_file: /tmp/ralph.log
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".ralph.yaml"), []byte(configContent), 0o644))

	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Loop.MaxIterations)
	assert.Equal(t, "FINISHED", cfg.Loop.StopWord)
	assert.Equal(t, 8, cfg.Loop.StallThreshold)
	assert.False(t, cfg.Loop.Checkpoints)
	assert.Equal(t, "my-agent", cfg.Agent.Command)
	assert.Equal(t, []string{"--fast"}, cfg.Agent.Args)
	assert.Equal(t, "/tmp/ralph.log", cfg.LogFile)
}

func TestLoad_PartialFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configContent := `loop:
  max_iterations: 25
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".ralph.yaml"), []byte(configContent), 0o644))

	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Loop.MaxIterations)
	assert.Equal(t, DefaultStopWord, cfg.Loop.StopWord)
	assert.Equal(t, DefaultAgentCommand, cfg.Agent.Command)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".ralph.yaml"), []byte("loop: ["), 0o644))

	_, err := Load(tmpDir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero max iterations", func(c *Config) { c.Loop.MaxIterations = 0 }, "loop.max_iterations"},
		{"empty stop word", func(c *Config) { c.Loop.StopWord = "" }, "loop.stop_word"},
		{"negative stall threshold", func(c *Config) { c.Loop.StallThreshold = -1 }, "loop.stall_threshold"},
		{"empty agent command", func(c *Config) { c.Agent.Command = "" }, "agent.command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := Validate(&cfg)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	cfg := DefaultConfig()
	assert.NoError(t, Validate(&cfg))
}
