package engine

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ralphlab/ralph/internal/workspace"
)

func TestBuildIterationPrompt(t *testing.T) {
	e, state := newEngine(t)
	require.NoError(t, e.Store().Overwrite(workspace.ProgressFile, "did a thing\n"))

	path, err := e.BuildIterationPrompt(state, RoleSolo)
	require.NoError(t, err)
	assert.Equal(t, e.Store().Path(workspace.PromptFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	prompt := string(data)

	// 1-indexed display for iteration 0.
	assert.True(t, strings.HasPrefix(prompt, "# Iteration 1 of 3\n"))
	assert.Contains(t, prompt, "## Task")
	assert.Contains(t, prompt, "test task")
	assert.Contains(t, prompt, "## Guardrails")
	assert.Contains(t, prompt, "## Progress")
	assert.Contains(t, prompt, "did a thing")
	assert.Contains(t, prompt, "## Instructions")
	assert.Contains(t, prompt, "write DONE in progress.md")
}

func TestBuildIterationPromptDeterministic(t *testing.T) {
	e, state := newEngine(t)

	path, err := e.BuildIterationPrompt(state, RoleSolo)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = e.BuildIterationPrompt(state, RoleSolo)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestBuildIterationPromptMissingFiles(t *testing.T) {
	e, state := newEngine(t)
	require.NoError(t, os.Remove(e.Store().Path(workspace.GuardrailsFile)))
	require.NoError(t, os.Remove(e.Store().Path(workspace.ProgressFile)))

	path, err := e.BuildIterationPrompt(state, RoleSolo)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	prompt := string(data)
	assert.Contains(t, prompt, "## Guardrails\n\n(empty)")
	assert.Contains(t, prompt, "## Progress\n\n(empty)")
}

func TestBuildIterationPromptDoesNotMutateState(t *testing.T) {
	e, state := newEngine(t)
	before := *state

	_, err := e.BuildIterationPrompt(state, RoleWorker)
	require.NoError(t, err)
	assert.Equal(t, before.Iteration, state.Iteration)

	loaded, err := e.Store().LoadState()
	require.NoError(t, err)
	assert.Equal(t, before.Iteration, loaded.Iteration)
}

func TestBuildIterationPromptRecentActivity(t *testing.T) {
	e, state := newEngine(t)
	for i := 1; i <= 7; i++ {
		require.NoError(t, e.LogActivity(i, time.Minute, "Reason: continue"))
	}

	path, err := e.BuildIterationPrompt(state, RoleSolo)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	prompt := string(data)

	assert.Contains(t, prompt, "## Recent Activity")
	assert.NotContains(t, prompt, "Iteration 2 completed")
	assert.Contains(t, prompt, "Iteration 3 completed")
	assert.Contains(t, prompt, "Iteration 7 completed")
}

func TestClosingInstructionsPerRole(t *testing.T) {
	e, state := newEngine(t)

	for _, tt := range []struct {
		role Role
		want string
	}{
		{RolePlanner, "PLANNING COMPLETE"},
		{RoleWorker, "tasks.md"},
		{RoleSolo, "progress.md"},
	} {
		path, err := e.BuildIterationPrompt(state, tt.role)
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), tt.want, "role %s", tt.role)
	}
}
