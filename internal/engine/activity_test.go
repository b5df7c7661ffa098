package engine

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ralphlab/ralph/internal/workspace"
)

func TestLogActivityFormat(t *testing.T) {
	e, _ := newEngine(t)

	require.NoError(t, e.LogActivity(2, 90*time.Second, "Reason: continue"))

	content, err := e.Store().Read(workspace.ActivityFile)
	require.NoError(t, err)
	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] Iteration 2 completed \| Duration: 1m30s \| Reason: continue\n$`, content)
}

func TestRecentActivity(t *testing.T) {
	e, _ := newEngine(t)

	assert.Nil(t, e.RecentActivity(5))

	for i := 1; i <= 8; i++ {
		require.NoError(t, e.LogActivity(i, time.Second, "Reason: continue"))
	}

	recent := e.RecentActivity(5)
	require.Len(t, recent, 5)
	assert.Contains(t, recent[0], "Iteration 4 completed")
	assert.Contains(t, recent[4], "Iteration 8 completed")
}

func TestLogTransitionCapped(t *testing.T) {
	e, _ := newEngine(t)

	for i := 0; i < 60; i++ {
		require.NoError(t, e.LogTransition("working", fmt.Sprintf("state-%d", i)))
	}

	content, err := e.Store().Read(workspace.SessionHistoryFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	assert.Len(t, lines, 50)
	assert.Contains(t, lines[0], "state-10")
	assert.Contains(t, lines[49], "state-59")
}

func TestLogErrorFormat(t *testing.T) {
	e, _ := newEngine(t)

	require.NoError(t, e.LogError(3, "agent exited with status 1"))

	content, err := e.Store().Read(workspace.ErrorsFile)
	require.NoError(t, err)
	assert.Regexp(t, `^\[Iteration 3\] \[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] agent exited with status 1\n$`, content)
}

func TestTrackErrorAppendsGuardrailAtThreshold(t *testing.T) {
	e, state := newEngine(t)

	for i := 0; i < 2; i++ {
		require.NoError(t, e.TrackError(state, "test failure: TestFoo exit status 1"))
	}
	guardrails, err := e.Store().Read(workspace.GuardrailsFile)
	require.NoError(t, err)
	assert.NotContains(t, guardrails, "### Sign: Recurring error")

	require.NoError(t, e.TrackError(state, "test failure: TestFoo exit status 2"))
	guardrails, err = e.Store().Read(workspace.GuardrailsFile)
	require.NoError(t, err)
	assert.Contains(t, guardrails, "### Sign: Recurring error")
	assert.Contains(t, guardrails, "- Trigger:")
	assert.Contains(t, guardrails, "- Instruction:")

	// Counts survive a state reload.
	loaded, err := e.Store().LoadState()
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.ErrorCounts["test failure: testfoo exit status"])
}

func TestTrackErrorPastThresholdAddsNoDuplicateSign(t *testing.T) {
	e, state := newEngine(t)

	for i := 0; i < 4; i++ {
		require.NoError(t, e.TrackError(state, "compile error in main.go"))
	}

	guardrails, err := e.Store().Read(workspace.GuardrailsFile)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(guardrails, "### Sign: Recurring error"))
}

func TestAppendGuardrail(t *testing.T) {
	e, _ := newEngine(t)

	require.NoError(t, e.AppendGuardrail(GuardrailSign{
		Label:       "No force pushes",
		Trigger:     "History was rewritten on a shared branch",
		Instruction: "Never pass --force to git push",
		Iteration:   4,
	}))

	guardrails, err := e.Store().Read(workspace.GuardrailsFile)
	require.NoError(t, err)
	assert.Contains(t, guardrails, "### Sign: No force pushes")
	assert.Contains(t, guardrails, "- Trigger: History was rewritten on a shared branch")
	assert.Contains(t, guardrails, "- Instruction: Never pass --force to git push")
	assert.Contains(t, guardrails, "- Added: iteration 4")
}
