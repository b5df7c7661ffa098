package engine

import (
	"fmt"
	"strings"

	"github.com/ralphlab/ralph/internal/workspace"
)

// Role selects the closing instructions of an iteration prompt.
type Role string

const (
	RoleSolo    Role = "solo"
	RolePlanner Role = "planner"
	RoleWorker  Role = "worker"
)

const recentActivityLines = 5

// BuildIterationPrompt composes the prompt document for the upcoming
// iteration, writes it to _iteration_prompt.md, and returns its path.
// Missing workspace files contribute empty sections; composing never
// mutates state. The iteration number is displayed 1-indexed.
func (e *Engine) BuildIterationPrompt(state *workspace.State, role Role) (string, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Iteration %d of %d\n\n", state.Iteration+1, state.MaxIterations)

	recent := e.RecentActivity(recentActivityLines)
	if len(recent) > 0 {
		sb.WriteString("## Recent Activity\n\n")
		for _, line := range recent {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	writeSection := func(title, file string) error {
		content, err := e.store.Read(file)
		if err != nil {
			return err
		}
		fmt.Fprintf(&sb, "## %s\n\n", title)
		content = strings.TrimRight(content, "\n")
		if content == "" {
			sb.WriteString("(empty)\n\n")
			return nil
		}
		sb.WriteString(content)
		sb.WriteString("\n\n")
		return nil
	}

	if err := writeSection("Task", workspace.AnchorFile); err != nil {
		return "", err
	}
	if err := writeSection("Guardrails", workspace.GuardrailsFile); err != nil {
		return "", err
	}
	if err := writeSection("Progress", workspace.ProgressFile); err != nil {
		return "", err
	}

	sb.WriteString("## Instructions\n\n")
	sb.WriteString(closingInstructions(role, state.StopWord))

	path := e.store.Path(workspace.PromptFile)
	if err := e.store.Overwrite(workspace.PromptFile, sb.String()); err != nil {
		return "", err
	}
	return path, nil
}

func closingInstructions(role Role, stopWord string) string {
	switch role {
	case RolePlanner:
		return fmt.Sprintf(
			"You are the planner. Break the task into small, independent items "+
				"and add them to the Pending section of tasks.md. Do not implement "+
				"anything yourself. Record what you planned in progress.md. When the "+
				"plan fully covers the task, write %q in progress.md.\n",
			PlanningCompleteMarker)
	case RoleWorker:
		return fmt.Sprintf(
			"You are a worker. Claim the next pending item in tasks.md, implement "+
				"it, mark it completed, and record the outcome in progress.md. Work on "+
				"one item per iteration. When every item is completed and verified, "+
				"write %s in progress.md.\n",
			stopWord)
	default:
		return fmt.Sprintf(
			"Make concrete progress on the task, then update progress.md with what "+
				"you did and what remains. Keep changes small and verifiable. When the "+
				"task is fully complete and verified, write %s in progress.md.\n",
			stopWord)
	}
}
