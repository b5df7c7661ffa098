package pane

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTmux installs a stub tmux binary ahead of the real one on PATH
// and returns the path of the file it logs each subcommand to.
func fakeTmux(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	dir := t.TempDir()
	logPath := filepath.Join(dir, "calls.log")
	body := fmt.Sprintf("#!/bin/sh\necho \"$1\" >> %q\n%s\n", logPath, script)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmux"), []byte(body), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return logPath
}

func readCalls(t *testing.T, logPath string) string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	return string(data)
}

func TestTmuxRunnerCleanExit(t *testing.T) {
	fakeTmux(t, `case "$1" in
display-message) echo "1 0" ;;
esac`)

	r := NewTmuxRunner("%1", "agent", []string{"--flag"})
	r.poll = 10 * time.Millisecond

	require.NoError(t, r.Dispatch(context.Background(), "prompt.md"))
}

func TestTmuxRunnerReportsExitStatus(t *testing.T) {
	fakeTmux(t, `case "$1" in
display-message) echo "1 2" ;;
esac`)

	r := NewTmuxRunner("%1", "agent", nil)
	r.poll = 10 * time.Millisecond

	err := r.Dispatch(context.Background(), "prompt.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 2")
}

func TestTmuxRunnerCancellationWaitsForAgentExit(t *testing.T) {
	// The pane stays alive until it receives the Ctrl-C, so a dispatch
	// that bailed out on cancellation without interrupting would hang
	// the agent and never observe the pane die.
	marker := filepath.Join(t.TempDir(), "interrupted")
	logPath := fakeTmux(t, fmt.Sprintf(`case "$1" in
send-keys) : > %q ;;
display-message) if [ -e %q ]; then echo "1 130"; else echo "0 "; fi ;;
esac`, marker, marker))

	r := NewTmuxRunner("%1", "agent", nil)
	r.poll = 10 * time.Millisecond
	r.grace = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Dispatch(ctx, "prompt.md") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("dispatch did not return after the pane died")
	}

	calls := readCalls(t, logPath)
	assert.Contains(t, calls, "respawn-pane")
	assert.Contains(t, calls, "send-keys")
}

func TestTmuxRunnerInterruptGraceExpires(t *testing.T) {
	// A pane that ignores the Ctrl-C is abandoned once the grace period
	// runs out.
	fakeTmux(t, `case "$1" in
display-message) echo "0 " ;;
esac`)

	r := NewTmuxRunner("%1", "agent", nil)
	r.poll = 10 * time.Millisecond
	r.grace = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Dispatch(ctx, "prompt.md") }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Contains(t, err.Error(), "did not exit after interrupt")
	case <-time.After(3 * time.Second):
		t.Fatal("dispatch did not return after the grace period")
	}
}
