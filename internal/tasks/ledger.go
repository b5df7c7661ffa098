// Package tasks implements the markdown task ledger (tasks.md) and the
// coordination channel used for planner/worker hand-off. The ledger is a
// human-editable file; every mutation reads the whole file, rewrites it,
// and replaces it atomically so concurrent editors never see a torn
// write. Lines that don't parse as tasks are preserved verbatim.
package tasks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ralphlab/ralph/internal/logging"
	"github.com/ralphlab/ralph/internal/workspace"
)

// Section headings, in canonical file order.
const (
	headingPending    = "## Pending"
	headingInProgress = "## In Progress"
	headingCompleted  = "## Completed"
)

// Status is a task's lifecycle stage, derived from its checkbox marker.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in progress"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Task is one ledger entry.
type Task struct {
	ID     string
	Desc   string
	Worker string
	Status Status
}

// ErrDuplicateTask is returned by Add when the id already exists
// anywhere in the ledger.
var ErrDuplicateTask = errors.New("task id already exists")

// Ledger provides operations over a workspace's tasks.md.
type Ledger struct {
	store *workspace.Store
	log   *logging.Logger
}

// NewLedger returns a Ledger over the store's tasks file.
func NewLedger(store *workspace.Store) *Ledger {
	return &Ledger{
		store: store,
		log:   logging.With("component", "tasks"),
	}
}

// parseTaskLine decodes one ledger line. The second return is false for
// lines that are not task entries.
func parseTaskLine(line string) (Task, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "- [") {
		return Task{}, false
	}

	rest := trimmed[len("- ["):]
	if len(rest) < 2 || rest[1] != ']' {
		return Task{}, false
	}

	var status Status
	switch rest[0] {
	case ' ':
		status = StatusPending
	case '~':
		status = StatusInProgress
	case 'x', 'X':
		status = StatusCompleted
	default:
		return Task{}, false
	}
	rest = strings.TrimSpace(rest[2:])

	if !strings.HasPrefix(rest, "[") {
		return Task{}, false
	}
	end := strings.Index(rest, "]")
	if end < 1 {
		return Task{}, false
	}
	id := rest[1:end]
	rest = strings.TrimSpace(rest[end+1:])

	task := Task{ID: id, Status: status}
	if i := strings.Index(rest, "(worker:"); i >= 0 {
		task.Desc = strings.TrimSpace(rest[:i])
		tail := rest[i+len("(worker:"):]
		if j := strings.Index(tail, ")"); j >= 0 {
			task.Worker = strings.TrimSpace(tail[:j])
		}
	} else {
		task.Desc = rest
	}
	return task, true
}

// renderTaskLine encodes a task back into its ledger line.
func renderTaskLine(t Task) string {
	switch t.Status {
	case StatusInProgress:
		if t.Worker != "" {
			return fmt.Sprintf("- [~] [%s] %s (worker: %s)", t.ID, t.Desc, t.Worker)
		}
		return fmt.Sprintf("- [~] [%s] %s", t.ID, t.Desc)
	case StatusCompleted:
		return fmt.Sprintf("- [x] [%s] %s", t.ID, t.Desc)
	default:
		return fmt.Sprintf("- [ ] [%s] %s", t.ID, t.Desc)
	}
}

func (l *Ledger) readLines() ([]string, error) {
	content, err := l.store.Read(workspace.TasksFile)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, nil
	}
	return strings.Split(strings.TrimRight(content, "\n"), "\n"), nil
}

// writeLines rewrites the ledger with exactly one trailing newline.
func (l *Ledger) writeLines(lines []string) error {
	content := strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
	return l.store.Overwrite(workspace.TasksFile, content)
}

// List returns every task in file order.
func (l *Ledger) List() ([]Task, error) {
	lines, err := l.readLines()
	if err != nil {
		return nil, err
	}
	var tasks []Task
	for _, line := range lines {
		if task, ok := parseTaskLine(line); ok {
			tasks = append(tasks, task)
		} else if looksLikeTask(line) {
			l.log.Warn("skipping malformed task line", "line", strings.TrimSpace(line))
		}
	}
	return tasks, nil
}

// looksLikeTask flags checkbox lines that failed to parse, so malformed
// entries surface as warnings instead of vanishing silently.
func looksLikeTask(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "- [")
}

// ReadPending returns the pending tasks in file order.
func (l *Ledger) ReadPending() ([]Task, error) {
	all, err := l.List()
	if err != nil {
		return nil, err
	}
	var pending []Task
	for _, t := range all {
		if t.Status == StatusPending {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

// ReadNext returns the first pending task, or nil when none remain.
func (l *Ledger) ReadNext() (*Task, error) {
	pending, err := l.ReadPending()
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}
	return &pending[0], nil
}

// findTask locates a task line by id. Returns the line index and the
// parsed task, or -1 when absent.
func findTask(lines []string, id string) (int, Task) {
	for i, line := range lines {
		if task, ok := parseTaskLine(line); ok && task.ID == id {
			return i, task
		}
	}
	return -1, Task{}
}

// findHeading returns the index of an exact section heading, or -1.
func findHeading(lines []string, heading string) int {
	for i, line := range lines {
		if strings.TrimSpace(line) == heading {
			return i
		}
	}
	return -1
}

func insertAt(lines []string, idx int, items ...string) []string {
	out := make([]string, 0, len(lines)+len(items))
	out = append(out, lines[:idx]...)
	out = append(out, items...)
	out = append(out, lines[idx:]...)
	return out
}

func removeAt(lines []string, idx int) []string {
	return append(lines[:idx:idx], lines[idx+1:]...)
}

// Claim moves a pending task to the top of In Progress and tags it with
// the worker id. Claiming a missing id is a no-op, as is re-claiming a
// task that is already in progress or completed.
func (l *Ledger) Claim(id, worker string) error {
	lines, err := l.readLines()
	if err != nil {
		return err
	}

	idx, task := findTask(lines, id)
	if idx < 0 {
		l.log.Debug("claim skipped, task not found", "id", id)
		return nil
	}
	if task.Status != StatusPending {
		l.log.Debug("claim skipped, task not pending", "id", id, "status", task.Status)
		return nil
	}

	lines = removeAt(lines, idx)
	task.Status = StatusInProgress
	task.Worker = worker
	claimed := renderTaskLine(task)

	if h := findHeading(lines, headingInProgress); h >= 0 {
		lines = insertAt(lines, h+1, claimed)
	} else {
		lines = materializeInProgress(lines, claimed)
	}
	return l.writeLines(lines)
}

// materializeInProgress inserts a fresh In Progress section holding one
// line, placed before Completed (preceded by a blank line) or appended
// at the end when Completed is missing.
func materializeInProgress(lines []string, taskLine string) []string {
	section := []string{headingInProgress, taskLine}

	h := findHeading(lines, headingCompleted)
	if h < 0 {
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "" {
			lines = append(lines, "")
		}
		return append(lines, section...)
	}

	items := append(append([]string{}, section...), "")
	if h == 0 || strings.TrimSpace(lines[h-1]) != "" {
		items = append([]string{""}, items...)
	}
	return insertAt(lines, h, items...)
}

// Complete moves an in-progress task to the top of Completed, dropping
// the worker annotation. Only claimed tasks complete: a missing,
// still-pending, or already-completed id is a no-op.
func (l *Ledger) Complete(id string) error {
	lines, err := l.readLines()
	if err != nil {
		return err
	}

	idx, task := findTask(lines, id)
	if idx < 0 {
		l.log.Debug("complete skipped, task not found", "id", id)
		return nil
	}
	if task.Status != StatusInProgress {
		l.log.Debug("complete skipped, task not in progress", "id", id, "status", task.Status)
		return nil
	}

	lines = removeAt(lines, idx)
	task.Status = StatusCompleted
	task.Worker = ""
	done := renderTaskLine(task)

	if h := findHeading(lines, headingCompleted); h >= 0 {
		lines = insertAt(lines, h+1, done)
	} else {
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "" {
			lines = append(lines, "")
		}
		lines = append(lines, headingCompleted, done)
	}
	return l.writeLines(lines)
}

// Add inserts a new pending task at the top of the Pending section. Ids
// must be unique across the whole ledger.
func (l *Ledger) Add(id, desc string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("task id must not be empty")
	}
	if strings.ContainsAny(id, "[]") {
		return fmt.Errorf("task id must not contain brackets")
	}

	lines, err := l.readLines()
	if err != nil {
		return err
	}
	if idx, _ := findTask(lines, id); idx >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, id)
	}

	line := renderTaskLine(Task{ID: id, Desc: desc, Status: StatusPending})
	if h := findHeading(lines, headingPending); h >= 0 {
		lines = insertAt(lines, h+1, line)
	} else {
		lines = insertAt(lines, 0, headingPending, line, "")
	}
	return l.writeLines(lines)
}
