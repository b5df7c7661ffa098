package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ralphlab/ralph/internal/tasks"
	"github.com/ralphlab/ralph/internal/workspace"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Work with the task ledger",
	Long: `Operates on .ralph/tasks.md, the markdown ledger shared between a
planner and its workers. The file stays human-editable; unrecognized
lines are left untouched by every operation.`,
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tasks",
	RunE:  runTasksListCmd,
}

var tasksNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next pending task",
	RunE:  runTasksNextCmd,
}

var tasksClaimCmd = &cobra.Command{
	Use:   "claim <id> <worker>",
	Short: "Claim a pending task for a worker",
	Args:  cobra.ExactArgs(2),
	RunE:  runTasksClaimCmd,
}

var tasksCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksCompleteCmd,
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <id> <description...>",
	Short: "Add a pending task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTasksAddCmd,
}

func init() {
	tasksCmd.AddCommand(tasksListCmd, tasksNextCmd, tasksClaimCmd, tasksCompleteCmd, tasksAddCmd)
	rootCmd.AddCommand(tasksCmd)
}

func openLedger() (*tasks.Ledger, error) {
	dir, err := projectDir()
	if err != nil {
		return nil, err
	}
	return tasks.NewLedger(workspace.NewStore(dir)), nil
}

func runTasksListCmd(cmd *cobra.Command, args []string) error {
	ledger, err := openLedger()
	if err != nil {
		return err
	}
	all, err := ledger.List()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("No tasks.")
		return nil
	}

	idWidth := len("ID")
	for _, t := range all {
		if len(t.ID) > idWidth {
			idWidth = len(t.ID)
		}
	}
	fmt.Printf("%-*s  %-12s  %s\n", idWidth, "ID", "STATUS", "DESCRIPTION")
	for _, t := range all {
		desc := t.Desc
		if t.Worker != "" {
			desc += fmt.Sprintf(" (worker: %s)", t.Worker)
		}
		fmt.Printf("%-*s  %-12s  %s\n", idWidth, t.ID, t.Status, desc)
	}
	return nil
}

func runTasksNextCmd(cmd *cobra.Command, args []string) error {
	ledger, err := openLedger()
	if err != nil {
		return err
	}
	next, err := ledger.ReadNext()
	if err != nil {
		return err
	}
	if next == nil {
		fmt.Println("No pending tasks.")
		return nil
	}
	fmt.Printf("[%s] %s\n", next.ID, next.Desc)
	return nil
}

func runTasksClaimCmd(cmd *cobra.Command, args []string) error {
	ledger, err := openLedger()
	if err != nil {
		return err
	}
	if err := ledger.Claim(args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Claimed %s for %s\n", args[0], args[1])
	return nil
}

func runTasksCompleteCmd(cmd *cobra.Command, args []string) error {
	ledger, err := openLedger()
	if err != nil {
		return err
	}
	if err := ledger.Complete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Completed %s\n", args[0])
	return nil
}

func runTasksAddCmd(cmd *cobra.Command, args []string) error {
	ledger, err := openLedger()
	if err != nil {
		return err
	}
	desc := strings.Join(args[1:], " ")
	if err := ledger.Add(args[0], desc); err != nil {
		return err
	}
	fmt.Printf("Added %s\n", args[0])
	return nil
}
