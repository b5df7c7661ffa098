package pane

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ralphlab/ralph/internal/logging"
)

// TmuxRunner dispatches the agent into an existing tmux pane and polls
// the pane until the command dies. The pane stays on screen between
// iterations so the operator can watch the agent work.
type TmuxRunner struct {
	paneID  string
	command string
	args    []string
	poll    time.Duration
	grace   time.Duration
	log     *logging.Logger
}

// NewTmuxRunner creates a runner for the given tmux pane id (for
// example "%3" or "session:0.1").
func NewTmuxRunner(paneID, command string, args []string) *TmuxRunner {
	return &TmuxRunner{
		paneID:  paneID,
		command: command,
		args:    args,
		poll:    time.Second,
		grace:   30 * time.Second,
		log:     logging.With("component", "pane").With("pane", paneID),
	}
}

// Dispatch respawns the pane running the agent against the prompt file
// and blocks until the pane's command exits. The pane is respawned with
// remain-on-exit so the exit status can be read back.
func (r *TmuxRunner) Dispatch(ctx context.Context, promptPath string) error {
	if err := r.tmux(ctx, "set-option", "-p", "-t", r.paneID, "remain-on-exit", "on"); err != nil {
		return fmt.Errorf("failed to configure pane: %w", err)
	}

	cmdline := r.command
	for _, arg := range append(append([]string{}, r.args...), promptPath) {
		cmdline += " " + shellQuote(arg)
	}
	if err := r.tmux(ctx, "respawn-pane", "-k", "-t", r.paneID, cmdline); err != nil {
		return fmt.Errorf("failed to respawn pane: %w", err)
	}
	r.log.Info("agent dispatched", "prompt", promptPath)

	return r.awaitExit(ctx)
}

// awaitExit polls the pane until its command dies, then reports the
// command's exit status. Cancellation does not abandon the pane: the
// agent gets a Ctrl-C and the poll keeps going until the command dies
// or the grace period runs out.
func (r *TmuxRunner) awaitExit(ctx context.Context) error {
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	done := ctx.Done()
	var deadline <-chan time.Time
	interrupted := false

	for {
		select {
		case <-done:
			done = nil
			interrupted = true
			deadline = time.After(r.grace)
			r.log.Info("run cancelled, interrupting agent")
			if err := r.Interrupt(context.Background()); err != nil {
				r.log.Warn("failed to interrupt agent", "error", err)
			}
			continue
		case <-deadline:
			return fmt.Errorf("agent did not exit after interrupt: %w", ctx.Err())
		case <-ticker.C:
		}

		// Polls run against the background context so a cancelled run
		// can still watch the pane wind down.
		out, err := r.tmuxOutput(context.Background(), "display-message", "-p", "-t", r.paneID,
			"#{pane_dead} #{pane_dead_status}")
		if err != nil {
			return fmt.Errorf("failed to poll pane: %w", err)
		}

		fields := strings.Fields(strings.TrimSpace(out))
		if len(fields) == 0 || fields[0] != "1" {
			continue
		}
		if interrupted {
			return ctx.Err()
		}
		if len(fields) > 1 && fields[1] != "0" {
			return fmt.Errorf("agent exited with status %s", fields[1])
		}
		return nil
	}
}

// Interrupt sends Ctrl-C to the pane.
func (r *TmuxRunner) Interrupt(ctx context.Context) error {
	if err := r.tmux(ctx, "send-keys", "-t", r.paneID, "C-c"); err != nil {
		return fmt.Errorf("failed to interrupt pane: %w", err)
	}
	return nil
}

func (r *TmuxRunner) tmux(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("tmux %s: %v: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (r *TmuxRunner) tmuxOutput(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tmux %s: %w", args[0], err)
	}
	return string(out), nil
}

// shellQuote wraps an argument in single quotes for the pane's shell.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`!*?[](){}<>|&;#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
