package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initStore(t *testing.T) (*Store, *State) {
	t.Helper()
	store := NewStore(t.TempDir())
	state, err := store.Init(InitOptions{
		Prompt:        "build the widget",
		MaxIterations: 10,
		StopWord:      "DONE",
	})
	require.NoError(t, err)
	return store, state
}

func TestInitCreatesSeedFiles(t *testing.T) {
	store, state := initStore(t)

	for _, name := range []string{AnchorFile, GuardrailsFile, ProgressFile, ErrorsFile, TasksFile, StateFile} {
		_, err := os.Stat(store.Path(name))
		assert.NoError(t, err, "expected %s to exist", name)
	}

	anchor, err := store.Read(AnchorFile)
	require.NoError(t, err)
	assert.Contains(t, anchor, "build the widget")

	assert.Equal(t, 0, state.Iteration)
	assert.Equal(t, 10, state.MaxIterations)
	assert.Equal(t, "DONE", state.StopWord)
	assert.False(t, state.StartedAt.IsZero())
}

func TestInitIdempotentBeforeFirstIteration(t *testing.T) {
	store, _ := initStore(t)

	// A second init over an unstarted workspace succeeds and reseeds.
	state, err := store.Init(InitOptions{
		Prompt:        "revised task",
		MaxIterations: 5,
		StopWord:      "FINISHED",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, state.Iteration)
	assert.Equal(t, 5, state.MaxIterations)

	anchor, err := store.Read(AnchorFile)
	require.NoError(t, err)
	assert.Contains(t, anchor, "revised task")
}

func TestInitRefusesLiveRun(t *testing.T) {
	store, state := initStore(t)

	state.Iteration = 3
	require.NoError(t, store.SaveState(state))

	_, err := store.Init(InitOptions{
		Prompt:        "another task",
		MaxIterations: 10,
		StopWord:      "DONE",
	})
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestInitValidatesOptions(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Init(InitOptions{MaxIterations: 10, StopWord: "   "})
	assert.Error(t, err)

	_, err = store.Init(InitOptions{MaxIterations: 0, StopWord: "DONE"})
	assert.Error(t, err)
}

func TestLoadStateMissing(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.LoadState()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadStateCorrupt(t *testing.T) {
	store, _ := initStore(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{{{"},
		{"missing stop word", `{"iteration": 0, "max_iterations": 10, "stop_word": ""}`},
		{"iteration past max", `{"iteration": 11, "max_iterations": 10, "stop_word": "DONE"}`},
		{"negative iteration", `{"iteration": -1, "max_iterations": 10, "stop_word": "DONE"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(store.Path(StateFile), []byte(tt.body), 0o644))
			_, err := store.LoadState()
			assert.ErrorIs(t, err, ErrStateCorrupt)
		})
	}
}

func TestStateRoundTripPreservesUnknownKeys(t *testing.T) {
	store, _ := initStore(t)

	raw, err := os.ReadFile(store.Path(StateFile))
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	doc["custom_tool_field"] = json.RawMessage(`{"nested": true}`)
	augmented, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(StateFile), augmented, 0o644))

	state, err := store.LoadState()
	require.NoError(t, err)
	state.Iteration = 1
	require.NoError(t, store.SaveState(state))

	raw, err = os.ReadFile(store.Path(StateFile))
	require.NoError(t, err)
	var after map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &after))
	assert.JSONEq(t, `{"nested": true}`, string(after["custom_tool_field"]))
	assert.JSONEq(t, `1`, string(after["iteration"]))
}

func TestReadMissingFileIsEmpty(t *testing.T) {
	store, _ := initStore(t)

	content, err := store.Read("no_such_file.md")
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

func TestAppendAndOverwrite(t *testing.T) {
	store, _ := initStore(t)

	require.NoError(t, store.Append(ErrorsFile, "first\n"))
	require.NoError(t, store.Append(ErrorsFile, "second\n"))

	content, err := store.Read(ErrorsFile)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", content)

	require.NoError(t, store.Overwrite(ProgressFile, "all new\n"))
	content, err = store.Read(ProgressFile)
	require.NoError(t, err)
	assert.Equal(t, "all new\n", content)
}

func TestArchive(t *testing.T) {
	store, _ := initStore(t)

	require.NoError(t, store.Archive())
	assert.False(t, store.Exists())
	_, err := os.Stat(filepath.Join(store.ArchiveDir(), StateFile))
	assert.NoError(t, err)

	// Archiving again with no workspace is a no-op.
	require.NoError(t, store.Archive())
}

func TestArchiveReplacesPriorArchive(t *testing.T) {
	store, _ := initStore(t)
	require.NoError(t, store.Overwrite(ProgressFile, "first run\n"))
	require.NoError(t, store.Archive())

	_, err := store.Init(InitOptions{
		Prompt:        "second run",
		MaxIterations: 3,
		StopWord:      "DONE",
	})
	require.NoError(t, err)
	require.NoError(t, store.Overwrite(ProgressFile, "second run\n"))
	require.NoError(t, store.Archive())

	data, err := os.ReadFile(filepath.Join(store.ArchiveDir(), ProgressFile))
	require.NoError(t, err)
	assert.Equal(t, "second run\n", string(data))
}

func TestLoadAfterSaveRoundTrip(t *testing.T) {
	store, state := initStore(t)

	state.Iteration = 4
	state.PaneID = "%7"
	state.LastCommit = "abc1234"
	state.ErrorCounts = map[string]int{"test failure": 2}
	require.NoError(t, store.SaveState(state))

	loaded, err := store.LoadState()
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Iteration)
	assert.Equal(t, "%7", loaded.PaneID)
	assert.Equal(t, "abc1234", loaded.LastCommit)
	assert.Equal(t, map[string]int{"test failure": 2}, loaded.ErrorCounts)
	assert.True(t, loaded.StartedAt.Equal(state.StartedAt))
}
