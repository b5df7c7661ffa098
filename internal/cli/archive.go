package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ralphlab/ralph/internal/workspace"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive the workspace to .ralph.done",
	Long: `Renames .ralph/ to .ralph.done, replacing any previous archive.
The archived workspace keeps every file from the run, including the
final state and logs. Archiving with no workspace present is a no-op.`,
	RunE: runArchiveCmd,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}

func runArchiveCmd(cmd *cobra.Command, args []string) error {
	dir, err := projectDir()
	if err != nil {
		return err
	}

	store := workspace.NewStore(dir)
	existed := store.Exists()
	if err := store.Archive(); err != nil {
		return err
	}

	if existed {
		fmt.Printf("Archived workspace to %s\n", store.ArchiveDir())
	} else {
		fmt.Println("No workspace to archive.")
	}
	return nil
}
