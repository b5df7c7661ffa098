package scan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// StatsCache is the agent's precomputed usage summary from
// stats-cache.json.
type StatsCache struct {
	LastComputedDate string
	FirstSessionDate string
	TotalSessions    uint64
	TotalMessages    uint64
	DailyActivity    []DailyActivity
	ModelUsage       []ModelUsage
	LongestSession   *LongestSession
	// HourCounts is the message count per hour of day, 0-23.
	HourCounts [24]uint32
}

// DailyActivity is one day's message, session, and tool-call counts.
type DailyActivity struct {
	Date      string
	Messages  uint64
	Sessions  uint64
	ToolCalls uint64
}

// ModelUsage is the token usage attributed to one model.
type ModelUsage struct {
	Model         string
	Input         uint64
	Output        uint64
	CacheRead     uint64
	CacheCreation uint64
}

// LongestSession describes the longest recorded session.
type LongestSession struct {
	SessionID    string
	DurationMS   uint64
	MessageCount uint64
	Timestamp    string
}

// statsCacheJSON mirrors the file's wire layout. Model usage is an
// object keyed by model name and hour counts an object keyed "0"-"23",
// not arrays.
type statsCacheJSON struct {
	LastComputedDate string `json:"lastComputedDate"`
	FirstSessionDate string `json:"firstSessionDate"`
	TotalSessions    uint64 `json:"totalSessions"`
	TotalMessages    uint64 `json:"totalMessages"`
	DailyActivity    []struct {
		Date          string `json:"date"`
		MessageCount  uint64 `json:"messageCount"`
		SessionCount  uint64 `json:"sessionCount"`
		ToolCallCount uint64 `json:"toolCallCount"`
	} `json:"dailyActivity"`
	ModelUsage map[string]struct {
		InputTokens              uint64 `json:"inputTokens"`
		OutputTokens             uint64 `json:"outputTokens"`
		CacheReadInputTokens     uint64 `json:"cacheReadInputTokens"`
		CacheCreationInputTokens uint64 `json:"cacheCreationInputTokens"`
	} `json:"modelUsage"`
	LongestSession *struct {
		SessionID    string `json:"sessionId"`
		Duration     uint64 `json:"duration"`
		MessageCount uint64 `json:"messageCount"`
		Timestamp    string `json:"timestamp"`
	} `json:"longestSession"`
	HourCounts map[string]uint32 `json:"hourCounts"`
}

// Stats parses stats-cache.json. A missing or unreadable cache yields
// an empty StatsCache.
func (s *Scanner) Stats() (*StatsCache, error) {
	out := &StatsCache{}

	data, err := os.ReadFile(filepath.Join(s.root, "stats-cache.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}

	var wire statsCacheJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		s.log.Warn("stats cache unreadable", "error", err)
		return out, nil
	}

	out.LastComputedDate = wire.LastComputedDate
	out.FirstSessionDate = wire.FirstSessionDate
	out.TotalSessions = wire.TotalSessions
	out.TotalMessages = wire.TotalMessages

	for _, day := range wire.DailyActivity {
		out.DailyActivity = append(out.DailyActivity, DailyActivity{
			Date:      day.Date,
			Messages:  day.MessageCount,
			Sessions:  day.SessionCount,
			ToolCalls: day.ToolCallCount,
		})
	}

	for model, usage := range wire.ModelUsage {
		out.ModelUsage = append(out.ModelUsage, ModelUsage{
			Model:         model,
			Input:         usage.InputTokens,
			Output:        usage.OutputTokens,
			CacheRead:     usage.CacheReadInputTokens,
			CacheCreation: usage.CacheCreationInputTokens,
		})
	}
	sort.Slice(out.ModelUsage, func(i, j int) bool {
		return out.ModelUsage[i].Model < out.ModelUsage[j].Model
	})

	if ls := wire.LongestSession; ls != nil {
		out.LongestSession = &LongestSession{
			SessionID:    ls.SessionID,
			DurationMS:   ls.Duration,
			MessageCount: ls.MessageCount,
			Timestamp:    ls.Timestamp,
		}
	}

	for key, count := range wire.HourCounts {
		if hour, err := strconv.Atoi(key); err == nil && hour >= 0 && hour < 24 {
			out.HourCounts[hour] = count
		}
	}
	return out, nil
}
