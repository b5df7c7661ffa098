// Package pane abstracts the terminal pane that hosts the agent
// process. The loop driver only needs to dispatch an agent run and wait
// for it to exit; the tmux implementation does that against a live
// pane, and the mock stands in for tests.
package pane

import "context"

// Runner launches the agent against an iteration prompt and blocks
// until the agent process exits.
type Runner interface {
	// Dispatch starts the agent with the prompt file and waits for it to
	// finish. A non-nil error means the agent exited abnormally; the
	// caller decides whether the loop continues.
	Dispatch(ctx context.Context, promptPath string) error

	// Interrupt asks the running agent to stop.
	Interrupt(ctx context.Context) error
}
