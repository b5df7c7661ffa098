package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ralphlab/ralph/internal/workspace"
)

func newEngine(t *testing.T) (*Engine, *workspace.State) {
	t.Helper()
	store := workspace.NewStore(t.TempDir())
	state, err := store.Init(workspace.InitOptions{
		Prompt:        "test task",
		MaxIterations: 3,
		StopWord:      "DONE",
	})
	require.NoError(t, err)
	return New(store), state
}

func TestIncrementIteration(t *testing.T) {
	e, state := newEngine(t)

	require.NoError(t, e.IncrementIteration(state))
	assert.Equal(t, 1, state.Iteration)

	// The tick is persisted, not just in memory.
	loaded, err := e.Store().LoadState()
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Iteration)
}

func TestIncrementIterationRefusesPastMax(t *testing.T) {
	e, state := newEngine(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, e.IncrementIteration(state))
	}
	assert.Equal(t, 3, state.Iteration)

	err := e.IncrementIteration(state)
	assert.Error(t, err)
	assert.Equal(t, 3, state.Iteration)
}

func TestCheckStopWordCaseInsensitive(t *testing.T) {
	e, state := newEngine(t)

	tests := []struct {
		name     string
		progress string
		want     bool
	}{
		{"absent", "still working on it\n", false},
		{"exact", "All finished. DONE\n", true},
		{"lowercase", "all finished. done\n", true},
		{"mixed case", "All Finished. Done\n", true},
		{"embedded", "abandoned the approach\n", true},
		{"empty file", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, e.Store().Overwrite(workspace.ProgressFile, tt.progress))
			got, err := e.CheckStopWord(state)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckCompletionPrecedence(t *testing.T) {
	e, state := newEngine(t)

	// Nothing signalled, below max.
	reason, done, err := e.CheckCompletion(state)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Empty(t, reason)

	// Promise tag beats the stop word.
	require.NoError(t, e.Store().Overwrite(workspace.ProgressFile, "DONE\n"+PromiseTag+"\n"))
	reason, done, err = e.CheckCompletion(state)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, ReasonPromise, reason)

	// Stop word beats max reached.
	state.Iteration = state.MaxIterations
	require.NoError(t, e.Store().Overwrite(workspace.ProgressFile, "DONE\n"))
	reason, done, err = e.CheckCompletion(state)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, ReasonStopWord, reason)

	// Max alone.
	require.NoError(t, e.Store().Overwrite(workspace.ProgressFile, "still going\n"))
	reason, done, err = e.CheckCompletion(state)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, ReasonMaxReached, reason)
}

func TestCheckPlanningComplete(t *testing.T) {
	e, _ := newEngine(t)

	done, err := e.CheckPlanningComplete()
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, e.Store().Append(workspace.ProgressFile, "\nPLANNING COMPLETE\n"))
	done, err = e.CheckPlanningComplete()
	require.NoError(t, err)
	assert.True(t, done)
}
