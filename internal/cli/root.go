package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ralphlab/ralph/internal/config"
	"github.com/ralphlab/ralph/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	rootDir     string
	rootVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ralph",
	Short: "Iteration loop runner for autonomous coding agents",
	Long: `Ralph drives an external coding agent through short stateless
iterations over a task. State lives in a per-project .ralph/ workspace:
the task anchor, guardrails, progress notes, and a markdown task ledger
for planner/worker hand-off. Companion commands inspect the agent's
global data directory.`,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("ralph version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "C", "", "project directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setupLogging(cmd *cobra.Command, args []string) error {
	if rootVerbose {
		logging.SetLevel(logging.LevelDebug)
	} else {
		logging.SetLevel(logging.LevelInfo)
	}

	dir, err := projectDir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	if cfg.LogFile != "" {
		logging.SetFile(cfg.LogFile)
	}
	return nil
}

// projectDir resolves the project directory from --dir or the working
// directory.
func projectDir() (string, error) {
	if rootDir != "" {
		return rootDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cwd, nil
}
