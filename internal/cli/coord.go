package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ralphlab/ralph/internal/tasks"
	"github.com/ralphlab/ralph/internal/workspace"
)

var (
	coordLogSince  time.Duration
	coordRole      string
	coordNewStatus string
)

var coordCmd = &cobra.Command{
	Use:   "coord",
	Short: "Coordinate between planner and worker agents",
	Long: `Exchanges broadcasts and worker registrations through the
workspace. Broadcasts append to .ralph/coordination.md; workers
register under .ralph/workers/.`,
}

var coordSendCmd = &cobra.Command{
	Use:   "send <agent> <message...>",
	Short: "Broadcast a message",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCoordSendCmd,
}

var coordLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent broadcasts",
	RunE:  runCoordLogCmd,
}

var coordRegisterCmd = &cobra.Command{
	Use:   "register <worker-id>",
	Short: "Register a worker",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoordRegisterCmd,
}

var coordWorkersCmd = &cobra.Command{
	Use:   "workers",
	Short: "List registered workers",
	RunE:  runCoordWorkersCmd,
}

var coordStatusCmd = &cobra.Command{
	Use:   "set-status <worker-id> <status>",
	Short: "Update a worker's status",
	Args:  cobra.ExactArgs(2),
	RunE:  runCoordStatusCmd,
}

func init() {
	coordLogCmd.Flags().DurationVar(&coordLogSince, "since", time.Hour, "maximum broadcast age")
	coordRegisterCmd.Flags().StringVar(&coordRole, "role", "worker", "worker role")
	coordCmd.AddCommand(coordSendCmd, coordLogCmd, coordRegisterCmd, coordWorkersCmd, coordStatusCmd)
	rootCmd.AddCommand(coordCmd)
}

func openCoordinator() (*tasks.Coordinator, error) {
	dir, err := projectDir()
	if err != nil {
		return nil, err
	}
	return tasks.NewCoordinator(workspace.NewStore(dir)), nil
}

func runCoordSendCmd(cmd *cobra.Command, args []string) error {
	coord, err := openCoordinator()
	if err != nil {
		return err
	}
	if err := coord.Send(args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Println("Broadcast sent.")
	return nil
}

func runCoordLogCmd(cmd *cobra.Command, args []string) error {
	coord, err := openCoordinator()
	if err != nil {
		return err
	}
	broadcasts, err := coord.Recent(coordLogSince)
	if err != nil {
		return err
	}
	if len(broadcasts) == 0 {
		fmt.Println("No recent broadcasts.")
		return nil
	}
	for _, b := range broadcasts {
		fmt.Printf("%s  %-10s %s\n", b.Time.Local().Format("15:04:05"), b.Agent, b.Message)
	}
	return nil
}

func runCoordRegisterCmd(cmd *cobra.Command, args []string) error {
	coord, err := openCoordinator()
	if err != nil {
		return err
	}
	if err := coord.Register(args[0], coordRole); err != nil {
		return err
	}
	fmt.Printf("Registered %s as %s\n", args[0], coordRole)
	return nil
}

func runCoordWorkersCmd(cmd *cobra.Command, args []string) error {
	coord, err := openCoordinator()
	if err != nil {
		return err
	}
	workers, err := coord.Workers()
	if err != nil {
		return err
	}
	if len(workers) == 0 {
		fmt.Println("No workers registered.")
		return nil
	}
	for _, w := range workers {
		fmt.Printf("%-12s %-10s %-10s last seen %s\n",
			w.ID, w.Role, w.Status, w.LastSeen.Local().Format("15:04:05"))
	}
	return nil
}

func runCoordStatusCmd(cmd *cobra.Command, args []string) error {
	coord, err := openCoordinator()
	if err != nil {
		return err
	}
	if err := coord.UpdateStatus(args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Updated %s to %s\n", args[0], args[1])
	return nil
}
