// Package loop runs the iteration loop: compose a prompt, hand it to
// the pane runner, wait for the agent to exit, tick the state machine,
// and decide whether to go around again.
package loop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ralphlab/ralph/internal/engine"
	"github.com/ralphlab/ralph/internal/logging"
	"github.com/ralphlab/ralph/internal/pane"
)

// Options configures a run.
type Options struct {
	// Role selects the prompt's closing instructions.
	Role engine.Role

	// Checkpoints enables best-effort git commits after each iteration.
	Checkpoints bool

	// StallThreshold aborts after this many consecutive iterations with
	// an unchanged workspace. Zero disables stall detection.
	StallThreshold int

	// ArchiveOnComplete moves the workspace to .ralph.done when the run
	// finishes for any reason other than cancellation.
	ArchiveOnComplete bool
}

// Result reports how a run ended.
type Result struct {
	Reason     engine.CompletionReason
	Iterations int
}

// Driver owns one run of the loop.
type Driver struct {
	engine *engine.Engine
	runner pane.Runner
	opts   Options
	log    *logging.Logger
}

// NewDriver creates a Driver over an initialized workspace.
func NewDriver(eng *engine.Engine, runner pane.Runner, opts Options) *Driver {
	return &Driver{
		engine: eng,
		runner: runner,
		opts:   opts,
		log:    logging.With("component", "loop"),
	}
}

// Run executes iterations until a completion signal, the iteration cap,
// a stall, or cancellation. The run resumes from the persisted
// iteration counter, so an interrupted run picks up where it left off.
// Agent failures are logged to errors.log and do not stop the loop.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	state, err := d.engine.Store().LoadState()
	if err != nil {
		return nil, fmt.Errorf("failed to load run state: %w", err)
	}

	if err := d.engine.LogTransition("idle", "working"); err != nil {
		return nil, err
	}
	d.log.Info("run started",
		"iteration", state.Iteration,
		"max", state.MaxIterations,
		"stop_word", state.StopWord)

	stall := newStallDetector(d.opts.StallThreshold)
	var reason engine.CompletionReason

	for {
		if ctx.Err() != nil {
			reason = engine.ReasonCancelled
			break
		}
		if d.engine.CheckMaxIterations(state) {
			reason = engine.ReasonMaxReached
			break
		}

		if err := d.engine.BeginIteration(state); err != nil {
			return nil, err
		}
		promptPath, err := d.engine.BuildIterationPrompt(state, d.opts.Role)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		outcome := "Reason: continue"
		if err := d.runner.Dispatch(ctx, promptPath); err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				reason = engine.ReasonCancelled
				break
			}
			// The failure evaporates: record it and keep looping.
			d.log.Warn("agent exited abnormally", "iteration", state.Iteration+1, "error", err)
			if logErr := d.engine.LogError(state.Iteration+1, err.Error()); logErr != nil {
				return nil, logErr
			}
			if trackErr := d.engine.TrackError(state, err.Error()); trackErr != nil {
				return nil, trackErr
			}
			outcome = "Reason: agent error"
		}

		if err := d.engine.IncrementIteration(state); err != nil {
			return nil, err
		}
		if err := d.engine.LogActivity(state.Iteration, time.Since(start), outcome); err != nil {
			return nil, err
		}
		if d.opts.Checkpoints {
			msg := fmt.Sprintf("ralph: iteration %d", state.Iteration)
			if err := d.engine.Checkpoint(ctx, state, msg); err != nil {
				d.log.Warn("checkpoint failed", "error", err)
			}
		}

		done := false
		reason, done, err = d.engine.CheckCompletion(state)
		if err != nil {
			return nil, err
		}
		if !done && d.opts.Role == engine.RolePlanner {
			// A planner's run ends when the plan is handed off.
			planned, planErr := d.engine.CheckPlanningComplete()
			if planErr != nil {
				return nil, planErr
			}
			if planned {
				reason = engine.ReasonPlanningComplete
				done = true
			}
		}
		if done {
			break
		}

		fp, err := d.workspaceFingerprint()
		if err != nil {
			return nil, err
		}
		if stall.Observe(fp) {
			d.log.Warn("run stalled, workspace unchanged", "iterations", d.opts.StallThreshold)
			reason = engine.ReasonStalled
			break
		}
	}

	if err := d.engine.LogTransition("working", "stopped: "+string(reason)); err != nil {
		return nil, err
	}
	d.log.Info("run finished", "reason", reason, "iterations", state.Iteration)

	if d.opts.ArchiveOnComplete && reason != engine.ReasonCancelled {
		if err := d.engine.Archive(); err != nil {
			return nil, err
		}
	}
	return &Result{Reason: reason, Iterations: state.Iteration}, nil
}
