package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ralphlab/ralph/internal/engine"
	"github.com/ralphlab/ralph/internal/workspace"
)

var (
	guardrailTrigger     string
	guardrailInstruction string
)

var guardrailCmd = &cobra.Command{
	Use:   "guardrail",
	Short: "Manage guardrail signs",
}

var guardrailAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Append a guardrail sign",
	Long: `Appends a sign block to guardrails.md. Signs are injected into
every iteration prompt, steering the agent away from known failure
patterns.`,
	Args: cobra.ExactArgs(1),
	RunE: runGuardrailAddCmd,
}

func init() {
	guardrailAddCmd.Flags().StringVarP(&guardrailTrigger, "trigger", "t", "", "what provoked this sign")
	guardrailAddCmd.Flags().StringVarP(&guardrailInstruction, "instruction", "i", "", "what the agent should do instead")
	guardrailAddCmd.MarkFlagRequired("instruction")
	guardrailCmd.AddCommand(guardrailAddCmd)
	rootCmd.AddCommand(guardrailCmd)
}

func runGuardrailAddCmd(cmd *cobra.Command, args []string) error {
	dir, err := projectDir()
	if err != nil {
		return err
	}
	store := workspace.NewStore(dir)
	eng := engine.New(store)

	// Sign blocks carry the 1-indexed iteration, same as the
	// auto-guardrails recorded by the engine.
	iteration := 1
	if state, err := store.LoadState(); err == nil {
		iteration = state.Iteration + 1
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := eng.AppendGuardrail(engine.GuardrailSign{
		Label:       args[0],
		Trigger:     guardrailTrigger,
		Instruction: guardrailInstruction,
		Iteration:   iteration,
	}); err != nil {
		return err
	}
	fmt.Printf("Added guardrail sign %q\n", args[0])
	return nil
}
