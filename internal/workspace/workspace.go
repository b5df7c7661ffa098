// Package workspace manages the per-project .ralph/ directory: the seed
// files the loop reads and writes each iteration, and the persisted loop
// state in state.json. All writes that other processes may observe go
// through an atomic temp-file-then-rename.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DirName is the workspace directory created under the project root.
const DirName = ".ralph"

// ArchiveName is the sibling directory a finished workspace is renamed to.
const ArchiveName = ".ralph.done"

// Workspace file names.
const (
	AnchorFile         = "anchor.md"
	GuardrailsFile     = "guardrails.md"
	ProgressFile       = "progress.md"
	ErrorsFile         = "errors.log"
	StateFile          = "state.json"
	ActivityFile       = "activity.log"
	SessionHistoryFile = "session_history.log"
	TasksFile          = "tasks.md"
	CoordinationFile   = "coordination.md"
	PromptFile         = "_iteration_prompt.md"
	WorkersDir         = "workers"
)

// ErrRunInProgress is returned by Init when a live run already exists.
var ErrRunInProgress = errors.New("a run is already in progress")

// ErrStateCorrupt is returned when state.json cannot be decoded or fails
// validation. Wrapped errors carry the underlying cause.
var ErrStateCorrupt = errors.New("state file is corrupt")

// Store provides access to one project's workspace directory.
type Store struct {
	projectDir string
	dir        string
}

// NewStore returns a Store for the workspace under projectDir. The
// workspace directory may or may not exist yet.
func NewStore(projectDir string) *Store {
	return &Store{
		projectDir: projectDir,
		dir:        filepath.Join(projectDir, DirName),
	}
}

// Dir returns the workspace directory path.
func (s *Store) Dir() string {
	return s.dir
}

// ArchiveDir returns the path the workspace is renamed to on archive.
func (s *Store) ArchiveDir() string {
	return filepath.Join(s.projectDir, ArchiveName)
}

// Path returns the absolute path of a workspace file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether the workspace directory is present.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.dir)
	return err == nil && info.IsDir()
}

// InitOptions configures a new workspace.
type InitOptions struct {
	// Prompt is the task description written to anchor.md.
	Prompt string

	// MaxIterations caps the run. Must be positive.
	MaxIterations int

	// StopWord signals completion. Must be non-empty.
	StopWord string

	// PaneID identifies the pane the agent will run in, if known.
	PaneID string
}

const defaultGuardrails = `# Guardrails

Rules the agent must follow on every iteration. Append signs below as
failure patterns emerge.
`

const defaultProgress = `# Progress

(No progress recorded yet.)
`

const defaultTasks = `# Tasks

## Pending

## Completed
`

// Init creates the workspace and its seed files. It is idempotent over an
// empty or never-started workspace; a workspace whose state records a run
// past iteration 0 yields ErrRunInProgress.
func (s *Store) Init(opts InitOptions) (*State, error) {
	if opts.MaxIterations <= 0 {
		return nil, fmt.Errorf("max iterations must be positive, got %d", opts.MaxIterations)
	}
	if strings.TrimSpace(opts.StopWord) == "" {
		return nil, fmt.Errorf("stop word must not be empty")
	}

	if prior, err := s.LoadState(); err == nil && prior.Iteration > 0 {
		return nil, fmt.Errorf("%w: iteration %d of %d", ErrRunInProgress, prior.Iteration, prior.MaxIterations)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace dir: %w", err)
	}

	anchor := strings.TrimSpace(opts.Prompt)
	if anchor == "" {
		anchor = "(No task description provided.)"
	}
	seeds := map[string]string{
		AnchorFile:     "# Task\n\n" + anchor + "\n",
		GuardrailsFile: defaultGuardrails,
		ProgressFile:   defaultProgress,
		ErrorsFile:     "",
		TasksFile:      defaultTasks,
	}
	for name, body := range seeds {
		if err := writeFileAtomic(s.Path(name), []byte(body)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	state := &State{
		Iteration:     0,
		MaxIterations: opts.MaxIterations,
		StopWord:      opts.StopWord,
		StartedAt:     time.Now().UTC(),
		PaneID:        opts.PaneID,
		ProjectDir:    s.projectDir,
	}
	if err := s.SaveState(state); err != nil {
		return nil, err
	}
	return state, nil
}

// LoadState reads and validates state.json. A missing file returns an
// error wrapping os.ErrNotExist; a present but undecodable or invalid
// file returns an error wrapping ErrStateCorrupt.
func (s *Store) LoadState() (*State, error) {
	data, err := os.ReadFile(s.Path(StateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no state file: %w", os.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupt, err)
	}
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupt, err)
	}
	return &state, nil
}

// SaveState writes state.json atomically as indented JSON.
func (s *Store) SaveState(state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := writeFileAtomic(s.Path(StateFile), append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Read returns the contents of a workspace file. A missing file reads as
// empty.
func (s *Store) Read(name string) (string, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

// Append appends content to a workspace file, creating it if needed.
func (s *Store) Append(name, content string) error {
	f, err := os.OpenFile(s.Path(name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to append to %s: %w", name, err)
	}
	return nil
}

// Overwrite atomically replaces a workspace file's contents.
func (s *Store) Overwrite(name, content string) error {
	if err := writeFileAtomic(s.Path(name), []byte(content)); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Archive renames the workspace to its .done sibling, removing any prior
// archive first. Archiving a missing workspace is a no-op.
func (s *Store) Archive() error {
	if !s.Exists() {
		return nil
	}

	archive := s.ArchiveDir()
	if _, err := os.Stat(archive); err == nil {
		if err := os.RemoveAll(archive); err != nil {
			return fmt.Errorf("failed to remove previous archive: %w", err)
		}
	}
	if err := os.Rename(s.dir, archive); err != nil {
		return fmt.Errorf("failed to archive workspace: %w", err)
	}
	return nil
}
