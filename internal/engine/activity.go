package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/ralphlab/ralph/internal/workspace"
)

const (
	timestampLayout     = "2006-01-02 15:04:05"
	sessionHistoryLimit = 50

	// autoGuardrailThreshold is how many times an error pattern repeats
	// before a guardrail sign is appended automatically.
	autoGuardrailThreshold = 3
)

// LogActivity appends one iteration summary line to activity.log.
// Iteration numbers are displayed 1-indexed.
func (e *Engine) LogActivity(iteration int, duration time.Duration, outcome string) error {
	line := fmt.Sprintf("[%s] Iteration %d completed | Duration: %s | %s\n",
		time.Now().UTC().Format(timestampLayout), iteration, duration.Round(time.Second), outcome)
	return e.store.Append(workspace.ActivityFile, line)
}

// RecentActivity returns the last n activity.log lines, oldest first.
// A missing or empty log yields nil.
func (e *Engine) RecentActivity(n int) []string {
	content, err := e.store.Read(workspace.ActivityFile)
	if err != nil || content == "" {
		return nil
	}
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// LogTransition records a state transition in session_history.log,
// keeping only the newest entries.
func (e *Engine) LogTransition(from, to string) error {
	line := fmt.Sprintf("[%s] %s -> %s", time.Now().UTC().Format(timestampLayout), from, to)

	content, err := e.store.Read(workspace.SessionHistoryFile)
	if err != nil {
		return err
	}
	var lines []string
	if content != "" {
		lines = strings.Split(strings.TrimRight(content, "\n"), "\n")
	}
	lines = append(lines, line)
	if len(lines) > sessionHistoryLimit {
		lines = lines[len(lines)-sessionHistoryLimit:]
	}
	return e.store.Overwrite(workspace.SessionHistoryFile, strings.Join(lines, "\n")+"\n")
}

// LogError appends one entry to errors.log. Iteration numbers are
// displayed 1-indexed.
func (e *Engine) LogError(iteration int, msg string) error {
	line := fmt.Sprintf("[Iteration %d] [%s] %s\n",
		iteration, time.Now().UTC().Format(timestampLayout), msg)
	return e.store.Append(workspace.ErrorsFile, line)
}

// TrackError counts a normalized error pattern in state and, once the
// pattern has repeated enough, appends a guardrail sign so later
// iterations steer around it. The updated counts are persisted.
func (e *Engine) TrackError(state *workspace.State, msg string) error {
	key := normalizeErrorKey(msg)
	if key == "" {
		return nil
	}

	if state.ErrorCounts == nil {
		state.ErrorCounts = make(map[string]int)
	}
	state.ErrorCounts[key]++
	if err := e.store.SaveState(state); err != nil {
		return err
	}

	if state.ErrorCounts[key] == autoGuardrailThreshold {
		e.log.Warn("recurring error pattern, adding guardrail", "pattern", key, "count", autoGuardrailThreshold)
		return e.AppendGuardrail(GuardrailSign{
			Label:       "Recurring error: " + key,
			Trigger:     fmt.Sprintf("This error occurred %d times: %s", autoGuardrailThreshold, msg),
			Instruction: "Before repeating this approach, re-read the error above and try a different strategy.",
			Iteration:   state.Iteration + 1,
		})
	}
	return nil
}

// normalizeErrorKey collapses an error message into a short pattern key:
// lowercase first line, digits stripped, truncated.
func normalizeErrorKey(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	msg = strings.ToLower(strings.TrimSpace(msg))
	msg = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, msg)
	msg = strings.Join(strings.Fields(msg), " ")
	if len(msg) > 80 {
		msg = msg[:80]
	}
	return msg
}

// GuardrailSign is one append-only rule block in guardrails.md.
type GuardrailSign struct {
	Label       string
	Trigger     string
	Instruction string
	Iteration   int
}

// AppendGuardrail appends a sign block to guardrails.md.
func (e *Engine) AppendGuardrail(sign GuardrailSign) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n### Sign: %s\n", sign.Label)
	fmt.Fprintf(&sb, "- Trigger: %s\n", sign.Trigger)
	fmt.Fprintf(&sb, "- Instruction: %s\n", sign.Instruction)
	fmt.Fprintf(&sb, "- Added: iteration %d\n", sign.Iteration)
	return e.store.Append(workspace.GuardrailsFile, sb.String())
}
