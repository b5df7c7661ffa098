package workspace

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is the persisted loop record from state.json.
//
// Unknown keys written by other tools are preserved across a
// load/save round-trip.
type State struct {
	// Iteration is 0-indexed and incremented after each agent run.
	Iteration int

	// MaxIterations is the cap set at init.
	MaxIterations int

	// StopWord signals completion when found in progress.md.
	// Matching is case-insensitive; the stored form is canonical.
	StopWord string

	// StartedAt is when the loop was initialized (UTC).
	StartedAt time.Time

	// PaneID identifies the terminal pane hosting the agent.
	PaneID string

	// ProjectDir is the absolute project path.
	ProjectDir string

	// IterationStartedAt marks the start of the in-flight iteration.
	IterationStartedAt *time.Time

	// ErrorCounts tracks normalized error patterns for auto-guardrails.
	ErrorCounts map[string]int

	// LastCommit is the most recent git checkpoint hash, if any.
	LastCommit string

	// extra holds unrecognized keys for round-trip preservation.
	extra map[string]json.RawMessage
}

type stateJSON struct {
	Iteration          int            `json:"iteration"`
	MaxIterations      int            `json:"max_iterations"`
	StopWord           string         `json:"stop_word"`
	StartedAt          time.Time      `json:"started_at"`
	PaneID             string         `json:"pane_id"`
	ProjectDir         string         `json:"project_dir"`
	IterationStartedAt *time.Time     `json:"iteration_started_at,omitempty"`
	ErrorCounts        map[string]int `json:"error_counts,omitempty"`
	LastCommit         string         `json:"last_commit,omitempty"`
}

var knownStateKeys = map[string]bool{
	"iteration":            true,
	"max_iterations":       true,
	"stop_word":            true,
	"started_at":           true,
	"pane_id":              true,
	"project_dir":          true,
	"iteration_started_at": true,
	"error_counts":         true,
	"last_commit":          true,
}

// UnmarshalJSON decodes known fields and keeps everything else in extra.
func (s *State) UnmarshalJSON(data []byte) error {
	var typed stateJSON
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Iteration = typed.Iteration
	s.MaxIterations = typed.MaxIterations
	s.StopWord = typed.StopWord
	s.StartedAt = typed.StartedAt
	s.PaneID = typed.PaneID
	s.ProjectDir = typed.ProjectDir
	s.IterationStartedAt = typed.IterationStartedAt
	s.ErrorCounts = typed.ErrorCounts
	s.LastCommit = typed.LastCommit

	s.extra = nil
	for key, val := range raw {
		if knownStateKeys[key] {
			continue
		}
		if s.extra == nil {
			s.extra = make(map[string]json.RawMessage)
		}
		s.extra[key] = val
	}

	return nil
}

// MarshalJSON emits known fields merged with any preserved unknown keys.
func (s *State) MarshalJSON() ([]byte, error) {
	typed := stateJSON{
		Iteration:          s.Iteration,
		MaxIterations:      s.MaxIterations,
		StopWord:           s.StopWord,
		StartedAt:          s.StartedAt,
		PaneID:             s.PaneID,
		ProjectDir:         s.ProjectDir,
		IterationStartedAt: s.IterationStartedAt,
		ErrorCounts:        s.ErrorCounts,
		LastCommit:         s.LastCommit,
	}

	data, err := json.Marshal(typed)
	if err != nil {
		return nil, err
	}
	if len(s.extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, val := range s.extra {
		merged[key] = val
	}
	return json.Marshal(merged)
}

// Validate checks the structural invariants of a loaded state.
func (s *State) Validate() error {
	if s.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", s.MaxIterations)
	}
	if s.Iteration < 0 || s.Iteration > s.MaxIterations {
		return fmt.Errorf("iteration %d outside [0, %d]", s.Iteration, s.MaxIterations)
	}
	if s.StopWord == "" {
		return fmt.Errorf("stop_word must not be empty")
	}
	return nil
}
