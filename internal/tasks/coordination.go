package tasks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ralphlab/ralph/internal/workspace"
)

const broadcastLayout = "2006-01-02 15:04:05"

// Broadcast is one line of the coordination log.
type Broadcast struct {
	Time    time.Time
	Agent   string
	Message string
}

// Coordinator exchanges broadcasts and worker registrations through the
// workspace, letting a planner and its workers coordinate without a
// shared process.
type Coordinator struct {
	store *workspace.Store
}

// NewCoordinator returns a Coordinator over the given workspace.
func NewCoordinator(store *workspace.Store) *Coordinator {
	return &Coordinator{store: store}
}

// Send appends a broadcast line to coordination.md.
func (c *Coordinator) Send(agent, message string) error {
	line := fmt.Sprintf("[%s] [%s]: %s\n",
		time.Now().UTC().Format(broadcastLayout), agent, message)
	return c.store.Append(workspace.CoordinationFile, line)
}

// Recent returns broadcasts no older than maxAge, oldest first. Lines
// that don't parse are skipped.
func (c *Coordinator) Recent(maxAge time.Duration) ([]Broadcast, error) {
	content, err := c.store.Read(workspace.CoordinationFile)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-maxAge)
	var out []Broadcast
	for _, line := range strings.Split(content, "\n") {
		b, ok := parseBroadcast(line)
		if !ok || b.Time.Before(cutoff) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func parseBroadcast(line string) (Broadcast, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") {
		return Broadcast{}, false
	}
	end := strings.Index(line, "]")
	if end < 0 {
		return Broadcast{}, false
	}
	ts, err := time.Parse(broadcastLayout, line[1:end])
	if err != nil {
		return Broadcast{}, false
	}

	rest := strings.TrimSpace(line[end+1:])
	if !strings.HasPrefix(rest, "[") {
		return Broadcast{}, false
	}
	end = strings.Index(rest, "]:")
	if end < 0 {
		return Broadcast{}, false
	}
	return Broadcast{
		Time:    ts.UTC(),
		Agent:   rest[1:end],
		Message: strings.TrimSpace(rest[end+2:]),
	}, true
}

// Worker is one registered agent under the workspace's workers/ dir.
type Worker struct {
	ID           string    `json:"id"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	RegisteredAt time.Time `json:"registered_at"`
	LastSeen     time.Time `json:"last_seen"`
}

func (c *Coordinator) workerPath(id string) string {
	return filepath.Join(c.store.Path(workspace.WorkersDir), id+".json")
}

// Register records a worker's presence. Re-registering an id overwrites
// the previous record.
func (c *Coordinator) Register(id, role string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("worker id must not be empty")
	}
	if err := os.MkdirAll(c.store.Path(workspace.WorkersDir), 0o755); err != nil {
		return fmt.Errorf("failed to create workers dir: %w", err)
	}

	now := time.Now().UTC()
	return c.writeWorker(Worker{
		ID:           id,
		Role:         role,
		Status:       "idle",
		RegisteredAt: now,
		LastSeen:     now,
	})
}

// UpdateStatus sets a worker's status and refreshes its last-seen time.
func (c *Coordinator) UpdateStatus(id, status string) error {
	w, err := c.readWorker(id)
	if err != nil {
		return err
	}
	w.Status = status
	w.LastSeen = time.Now().UTC()
	return c.writeWorker(*w)
}

// Workers lists registered workers sorted by id. Malformed records are
// skipped.
func (c *Coordinator) Workers() ([]Worker, error) {
	entries, err := os.ReadDir(c.store.Path(workspace.WorkersDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read workers dir: %w", err)
	}

	var out []Worker
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		w, err := c.readWorker(id)
		if err != nil {
			continue
		}
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *Coordinator) readWorker(id string) (*Worker, error) {
	data, err := os.ReadFile(c.workerPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read worker record: %w", err)
	}
	var w Worker
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode worker record: %w", err)
	}
	return &w, nil
}

func (c *Coordinator) writeWorker(w Worker) error {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode worker record: %w", err)
	}
	rel := filepath.Join(workspace.WorkersDir, w.ID+".json")
	if err := c.store.Overwrite(rel, string(append(data, '\n'))); err != nil {
		return err
	}
	return nil
}
