package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ralphlab/ralph/internal/scan"
)

var dashboardRoot string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Summarize the agent's global data directory",
	Long: `Renders a read-only summary of the agent's data directory
(~/.claude by default): usage stats, recent inputs, session quality,
teams, and debug logs. Nothing is ever written.`,
	RunE: runDashboardCmd,
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardRoot, "root", "", "data directory (default: ~/.claude)")
	rootCmd.AddCommand(dashboardCmd)
}

var (
	dashTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginTop(1)
	dashLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Width(18)
	dashMuted = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
	dashValue = lipgloss.NewStyle().Bold(true)
)

func runDashboardCmd(cmd *cobra.Command, args []string) error {
	scanner := scan.NewScanner(dashboardRoot)
	out := cmd.OutOrStdout()

	stats, err := scanner.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, dashTitle.Render("Usage"))
	dashRow(out, "Sessions", fmt.Sprintf("%d", stats.TotalSessions))
	dashRow(out, "Messages", fmt.Sprintf("%d", stats.TotalMessages))
	if stats.FirstSessionDate != "" {
		dashRow(out, "First session", stats.FirstSessionDate)
	}
	if ls := stats.LongestSession; ls != nil {
		dashRow(out, "Longest session", fmt.Sprintf("%d messages, %s",
			ls.MessageCount, (time.Duration(ls.DurationMS) * time.Millisecond).Round(time.Minute)))
	}
	for _, usage := range stats.ModelUsage {
		dashRow(out, usage.Model, fmt.Sprintf("in %d / out %d tokens", usage.Input, usage.Output))
	}

	history, err := scanner.History()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, dashTitle.Render("Recent Inputs"))
	if len(history) == 0 {
		fmt.Fprintln(out, dashMuted.Render("  (none)"))
	}
	for i, entry := range history {
		if i >= 10 {
			break
		}
		display := entry.Display
		if len(display) > 70 {
			display = display[:67] + "..."
		}
		ts := time.UnixMilli(entry.Timestamp).Format("Jan 02 15:04")
		fmt.Fprintf(out, "  %s  %s\n", dashMuted.Render(ts), display)
	}

	quality, err := scanner.Facets()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, dashTitle.Render("Session Quality"))
	dashRow(out, "Sessions scanned", fmt.Sprintf("%d", quality.TotalSessions))
	if quality.TotalSessions > 0 {
		dashRow(out, "Outcomes", fmt.Sprintf("%d fully / %d mostly / %d partially / %d not / %d other",
			quality.Outcomes[scan.OutcomeFully],
			quality.Outcomes[scan.OutcomeMostly],
			quality.Outcomes[scan.OutcomePartially],
			quality.Outcomes[scan.OutcomeNot],
			quality.Outcomes[scan.OutcomeOther]))
		if len(quality.TopCategories) > 0 {
			dashRow(out, "Top categories", joinCounts(quality.TopCategories, 5))
		}
		if len(quality.Friction) > 0 {
			dashRow(out, "Friction", joinCounts(quality.Friction, 3))
		}
	}

	teams, err := scanner.Teams()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, dashTitle.Render("Teams"))
	if len(teams) == 0 {
		fmt.Fprintln(out, dashMuted.Render("  (none)"))
	}
	for _, team := range teams {
		names := make([]string, 0, len(team.Members))
		for _, m := range team.Members {
			names = append(names, m.Name)
		}
		dashRow(out, team.Name, strings.Join(names, ", "))
	}

	logs, err := scanner.DebugLogs()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, dashTitle.Render("Debug Logs"))
	if len(logs) == 0 {
		fmt.Fprintln(out, dashMuted.Render("  (none)"))
	}
	for i, entry := range logs {
		if i >= 5 {
			break
		}
		marker := ""
		if entry.IsLatest {
			marker = " (latest)"
		}
		fmt.Fprintf(out, "  %s  %s  %dB%s\n",
			dashMuted.Render(entry.Modified.Format("Jan 02 15:04")),
			entry.SessionID, entry.SizeBytes, marker)
	}
	return nil
}

func dashRow(out io.Writer, label, value string) {
	fmt.Fprintf(out, "  %s%s\n", dashLabel.Render(label), dashValue.Render(value))
}

func joinCounts(counts []scan.Count, limit int) string {
	if len(counts) > limit {
		counts = counts[:limit]
	}
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%s (%d)", c.Label, c.N))
	}
	return strings.Join(parts, ", ")
}
