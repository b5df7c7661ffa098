// Package engine implements the loop state machine and prompt composer
// that sit on top of the workspace store: iteration ticks, completion
// detection, activity and error logging, and git checkpoints.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/ralphlab/ralph/internal/logging"
	"github.com/ralphlab/ralph/internal/workspace"
)

// PromiseTag is an explicit completion signal the agent can emit into
// progress.md. It is checked before the stop word.
const PromiseTag = "<promise>COMPLETE</promise>"

// PlanningCompleteMarker hands control from a planner to workers.
const PlanningCompleteMarker = "PLANNING COMPLETE"

// CompletionReason explains why a run finished.
type CompletionReason string

const (
	ReasonPromise          CompletionReason = "promise_tag"
	ReasonStopWord         CompletionReason = "stop_word"
	ReasonPlanningComplete CompletionReason = "planning_complete"
	ReasonMaxReached       CompletionReason = "max_reached"
	ReasonCancelled        CompletionReason = "cancelled"
	ReasonStalled          CompletionReason = "stalled"
)

// Engine drives one workspace's loop state.
type Engine struct {
	store *workspace.Store
	log   *logging.Logger
}

// New creates an Engine over the given workspace store.
func New(store *workspace.Store) *Engine {
	return &Engine{
		store: store,
		log:   logging.With("component", "engine"),
	}
}

// Store returns the underlying workspace store.
func (e *Engine) Store() *workspace.Store {
	return e.store
}

// IncrementIteration advances the iteration counter by one and persists
// the state. It refuses to advance past max_iterations.
func (e *Engine) IncrementIteration(state *workspace.State) error {
	if state.Iteration >= state.MaxIterations {
		return fmt.Errorf("iteration %d already at max %d", state.Iteration, state.MaxIterations)
	}
	state.Iteration++
	state.IterationStartedAt = nil
	if err := e.store.SaveState(state); err != nil {
		return err
	}
	e.log.Debug("iteration advanced", "iteration", state.Iteration, "max", state.MaxIterations)
	return nil
}

// BeginIteration stamps the start of an iteration and persists it.
func (e *Engine) BeginIteration(state *workspace.State) error {
	now := time.Now().UTC()
	state.IterationStartedAt = &now
	return e.store.SaveState(state)
}

// CheckStopWord reports whether progress.md contains the stop word,
// matched case-insensitively.
func (e *Engine) CheckStopWord(state *workspace.State) (bool, error) {
	progress, err := e.store.Read(workspace.ProgressFile)
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(progress), strings.ToLower(state.StopWord)), nil
}

// CheckPromise reports whether progress.md carries the promise tag.
func (e *Engine) CheckPromise() (bool, error) {
	progress, err := e.store.Read(workspace.ProgressFile)
	if err != nil {
		return false, err
	}
	return strings.Contains(progress, PromiseTag), nil
}

// CheckPlanningComplete reports whether the planner has marked its phase
// done in progress.md.
func (e *Engine) CheckPlanningComplete() (bool, error) {
	progress, err := e.store.Read(workspace.ProgressFile)
	if err != nil {
		return false, err
	}
	return strings.Contains(progress, PlanningCompleteMarker), nil
}

// CheckMaxIterations reports whether the iteration counter has reached
// the cap.
func (e *Engine) CheckMaxIterations(state *workspace.State) bool {
	return state.Iteration >= state.MaxIterations
}

// CheckCompletion evaluates completion signals in precedence order:
// promise tag, then stop word, then the iteration cap.
func (e *Engine) CheckCompletion(state *workspace.State) (CompletionReason, bool, error) {
	promised, err := e.CheckPromise()
	if err != nil {
		return "", false, err
	}
	if promised {
		return ReasonPromise, true, nil
	}

	stopped, err := e.CheckStopWord(state)
	if err != nil {
		return "", false, err
	}
	if stopped {
		return ReasonStopWord, true, nil
	}

	if e.CheckMaxIterations(state) {
		return ReasonMaxReached, true, nil
	}
	return "", false, nil
}

// Archive moves the workspace to its .done sibling.
func (e *Engine) Archive() error {
	return e.store.Archive()
}
