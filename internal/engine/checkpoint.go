package engine

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ralphlab/ralph/internal/workspace"
)

// Checkpoint commits the project tree as a best-effort snapshot between
// iterations and records the commit hash in state. Projects without a
// git repository, or iterations with nothing to commit, are skipped
// without error.
func (e *Engine) Checkpoint(ctx context.Context, state *workspace.State, message string) error {
	projectDir := state.ProjectDir

	if err := runGit(ctx, projectDir, "rev-parse", "--git-dir"); err != nil {
		e.log.Debug("checkpoint skipped, not a git repository", "dir", projectDir)
		return nil
	}

	if err := runGit(ctx, projectDir, "add", "-A"); err != nil {
		e.log.Warn("checkpoint stage failed", "error", err)
		return nil
	}

	if err := runGit(ctx, projectDir, "commit", "-m", message); err != nil {
		// Nothing staged is the common case; git exits nonzero for it.
		e.log.Debug("checkpoint commit skipped", "reason", err)
		return nil
	}

	out, err := outputGit(ctx, projectDir, "rev-parse", "--short", "HEAD")
	if err != nil {
		e.log.Warn("checkpoint hash lookup failed", "error", err)
		return nil
	}

	state.LastCommit = strings.TrimSpace(out)
	if err := e.store.SaveState(state); err != nil {
		return fmt.Errorf("failed to record checkpoint: %w", err)
	}
	e.log.Info("checkpoint committed", "commit", state.LastCommit)
	return nil
}

func runGit(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git %s: %v: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

func outputGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(out), nil
}
