package scan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const historyCap = 500

// HistoryEntry is one line of history.jsonl: a user input with its
// session context.
type HistoryEntry struct {
	// Display is the (possibly truncated) input text.
	Display string
	// Timestamp is Unix milliseconds.
	Timestamp int64
	// Project is the project path the input was entered in.
	Project string
	// SessionID identifies the session.
	SessionID string
	// HasPasted is true when the entry carried pasted content.
	HasPasted bool
}

// History parses history.jsonl into entries sorted newest first,
// capped at 500. A missing file yields no entries; unparsable lines
// are skipped.
func (s *Scanner) History() ([]HistoryEntry, error) {
	data, err := os.ReadFile(filepath.Join(s.root, "history.jsonl"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []HistoryEntry
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var raw map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			continue
		}
		entries = append(entries, HistoryEntry{
			Display:   firstString(raw, "display", "text", "input"),
			Timestamp: firstInt64(raw, "timestamp", "ts"),
			Project:   firstString(raw, "project", "cwd"),
			SessionID: firstString(raw, "sessionId", "session_id"),
			HasPasted: hasContent(raw["pastedContents"]),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	if len(entries) > historyCap {
		entries = entries[:historyCap]
	}
	return entries, nil
}

// firstString returns the first key that decodes as a string.
func firstString(raw map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		if msg, ok := raw[key]; ok {
			var s string
			if json.Unmarshal(msg, &s) == nil {
				return s
			}
		}
	}
	return ""
}

// firstInt64 returns the first key that decodes as an integer.
func firstInt64(raw map[string]json.RawMessage, keys ...string) int64 {
	for _, key := range keys {
		if msg, ok := raw[key]; ok {
			var n int64
			if json.Unmarshal(msg, &n) == nil {
				return n
			}
		}
	}
	return 0
}

// hasContent reports whether a pastedContents value is a non-empty
// string, array, or object.
func hasContent(msg json.RawMessage) bool {
	if len(msg) == 0 {
		return false
	}
	var s string
	if json.Unmarshal(msg, &s) == nil {
		return s != ""
	}
	var arr []json.RawMessage
	if json.Unmarshal(msg, &arr) == nil {
		return len(arr) > 0
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(msg, &obj) == nil {
		return len(obj) > 0
	}
	return false
}
