package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ralphlab/ralph/internal/config"
	"github.com/ralphlab/ralph/internal/workspace"
)

var (
	initMaxIterations int
	initStopWord      string
	initPane          string
)

var initCmd = &cobra.Command{
	Use:   "init [task description]",
	Short: "Initialize the .ralph/ workspace",
	Long: `Creates the .ralph/ workspace with the task anchor, guardrails,
progress notes, task ledger, and run state. Re-running init over a
workspace that never started is safe; a workspace with a run in
progress is refused.

Flag defaults come from .ralph.yaml when present.`,
	RunE: runInitCmd,
}

func init() {
	initCmd.Flags().IntVarP(&initMaxIterations, "max-iterations", "n", 0, "iteration cap (default from config)")
	initCmd.Flags().StringVarP(&initStopWord, "stop-word", "s", "", "completion stop word (default from config)")
	initCmd.Flags().StringVarP(&initPane, "pane", "p", "", "tmux pane id the agent runs in")
	rootCmd.AddCommand(initCmd)
}

func runInitCmd(cmd *cobra.Command, args []string) error {
	dir, err := projectDir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	maxIterations := initMaxIterations
	if maxIterations == 0 {
		maxIterations = cfg.Loop.MaxIterations
	}
	stopWord := initStopWord
	if stopWord == "" {
		stopWord = cfg.Loop.StopWord
	}

	store := workspace.NewStore(dir)
	state, err := store.Init(workspace.InitOptions{
		Prompt:        strings.Join(args, " "),
		MaxIterations: maxIterations,
		StopWord:      stopWord,
		PaneID:        initPane,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Initialized %s\n", store.Dir())
	fmt.Printf("  max iterations: %d\n", state.MaxIterations)
	fmt.Printf("  stop word:      %s\n", state.StopWord)
	if state.PaneID != "" {
		fmt.Printf("  pane:           %s\n", state.PaneID)
	}
	return nil
}
