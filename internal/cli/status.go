package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ralphlab/ralph/internal/engine"
	"github.com/ralphlab/ralph/internal/tasks"
	"github.com/ralphlab/ralph/internal/workspace"
)

var statusFollow bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current run's state",
	Long: `Shows the run state from .ralph/: iteration progress, stop word,
task ledger counts, and recent activity. With --follow, the status is
reprinted whenever the workspace changes.`,
	RunE: runStatusCmd,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusFollow, "follow", "f", false, "reprint on workspace changes")
	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	dir, err := projectDir()
	if err != nil {
		return err
	}
	store := workspace.NewStore(dir)

	if err := printStatus(store); err != nil {
		return err
	}
	if !statusFollow {
		return nil
	}

	watcher, err := workspace.NewWatcher(store)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	for range watcher.Events() {
		fmt.Println()
		if err := printStatus(store); err != nil {
			return err
		}
	}
	return nil
}

func printStatus(store *workspace.Store) error {
	state, err := store.LoadState()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Println("No workspace found. Run 'ralph init' to start.")
			return nil
		}
		return err
	}

	fmt.Println("Run Status")
	fmt.Println("==========")
	printField("Iteration", fmt.Sprintf("%d of %d", state.Iteration, state.MaxIterations))
	printField("Stop word", state.StopWord)
	printField("Started", state.StartedAt.Local().Format("2006-01-02 15:04:05"))
	printField("Elapsed", formatDuration(time.Since(state.StartedAt)))
	if state.PaneID != "" {
		printField("Pane", state.PaneID)
	}
	if state.LastCommit != "" {
		printField("Checkpoint", state.LastCommit)
	}

	ledger := tasks.NewLedger(store)
	all, err := ledger.List()
	if err != nil {
		return err
	}
	if len(all) > 0 {
		var pending, inProgress, completed int
		for _, t := range all {
			switch t.Status {
			case tasks.StatusPending:
				pending++
			case tasks.StatusInProgress:
				inProgress++
			case tasks.StatusCompleted:
				completed++
			}
		}
		printField("Tasks", fmt.Sprintf("%d pending, %d in progress, %d completed", pending, inProgress, completed))
	}

	recent := engine.New(store).RecentActivity(5)
	if len(recent) > 0 {
		fmt.Println()
		fmt.Println("Recent Activity")
		fmt.Println("---------------")
		for _, line := range recent {
			fmt.Println(line)
		}
	}
	return nil
}

func printField(label, value string) {
	fmt.Printf("%-12s %s\n", label+":", value)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return d.String()
	}
	parts := []string{}
	if h := int(d.Hours()); h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m := int(d.Minutes()) % 60; m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	if s := int(d.Seconds()) % 60; s > 0 {
		parts = append(parts, fmt.Sprintf("%ds", s))
	}
	return strings.Join(parts, "")
}
