package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DebugLog is the metadata of one debug log file. Contents are loaded
// on demand, never during a scan.
type DebugLog struct {
	// SessionID is the file name without its .txt extension.
	SessionID string
	Path      string
	SizeBytes int64
	Modified  time.Time
	// IsLatest is true for the target of the `latest` symlink.
	IsLatest bool
}

// DebugLogs scans debug/ for *.txt log files, newest first. The
// `latest` symlink itself is skipped; its target is flagged.
func (s *Scanner) DebugLogs() ([]DebugLog, error) {
	dir := filepath.Join(s.root, "debug")
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var latestTarget string
	if link, err := os.Readlink(filepath.Join(dir, "latest")); err == nil {
		latestTarget = strings.TrimSuffix(filepath.Base(link), ".txt")
	}

	var logs []DebugLog
	for _, entry := range dirEntries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".txt") {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		sessionID := strings.TrimSuffix(name, ".txt")
		logs = append(logs, DebugLog{
			SessionID: sessionID,
			Path:      filepath.Join(dir, name),
			SizeBytes: info.Size(),
			Modified:  info.ModTime(),
			IsLatest:  latestTarget != "" && latestTarget == sessionID,
		})
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Modified.After(logs[j].Modified)
	})
	return logs, nil
}
