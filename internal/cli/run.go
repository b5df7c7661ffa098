package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ralphlab/ralph/internal/config"
	"github.com/ralphlab/ralph/internal/engine"
	"github.com/ralphlab/ralph/internal/loop"
	"github.com/ralphlab/ralph/internal/pane"
	"github.com/ralphlab/ralph/internal/workspace"
)

var (
	runRole    string
	runPane    string
	runFresh   bool
	runArchive bool
)

// runRunner is the pane runner used by the run command. Overridden in
// tests.
var runRunner pane.Runner

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the iteration loop until completion",
	Long: `Drives the agent through iterations until it signals completion,
the iteration cap is reached, or the run stalls. An interrupted run
resumes from the persisted iteration counter; --fresh archives the old
workspace first and requires a new init.

Ctrl-C stops the loop between iterations and leaves the workspace
intact.`,
	RunE: runRunCmd,
}

func init() {
	runCmd.Flags().StringVarP(&runRole, "role", "r", "solo", "prompt role: solo, planner, or worker")
	runCmd.Flags().StringVarP(&runPane, "pane", "p", "", "tmux pane id (default: pane recorded at init)")
	runCmd.Flags().BoolVar(&runFresh, "fresh", false, "archive the existing workspace before running")
	runCmd.Flags().BoolVar(&runArchive, "archive", false, "archive the workspace when the run completes")
	rootCmd.AddCommand(runCmd)
}

func parseRole(s string) (engine.Role, error) {
	switch s {
	case "solo":
		return engine.RoleSolo, nil
	case "planner":
		return engine.RolePlanner, nil
	case "worker":
		return engine.RoleWorker, nil
	default:
		return "", fmt.Errorf("unknown role %q (want solo, planner, or worker)", s)
	}
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	role, err := parseRole(runRole)
	if err != nil {
		return err
	}

	dir, err := projectDir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	store := workspace.NewStore(dir)
	if runFresh {
		if err := store.Archive(); err != nil {
			return err
		}
		fmt.Println("Workspace archived. Run 'ralph init' to start a new run.")
		return nil
	}

	state, err := store.LoadState()
	if err != nil {
		return fmt.Errorf("no initialized workspace (run 'ralph init' first): %w", err)
	}

	runner := runRunner
	if runner == nil {
		paneID := runPane
		if paneID == "" {
			paneID = state.PaneID
		}
		if paneID == "" {
			return fmt.Errorf("no pane configured; pass --pane or set one at init")
		}
		runner = pane.NewTmuxRunner(paneID, cfg.Agent.Command, cfg.Agent.Args)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := loop.NewDriver(engine.New(store), runner, loop.Options{
		Role:              role,
		Checkpoints:       cfg.Loop.Checkpoints,
		StallThreshold:    cfg.Loop.StallThreshold,
		ArchiveOnComplete: runArchive,
	})
	result, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Run finished: %s after %d iteration(s)\n", result.Reason, result.Iterations)
	return nil
}
