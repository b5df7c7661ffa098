package scan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Outcome bucket indexes in SessionQuality.Outcomes.
const (
	OutcomeFully = iota
	OutcomeMostly
	OutcomePartially
	OutcomeNot
	OutcomeOther
)

// Count is a labeled tally, sorted descending by count.
type Count struct {
	Label string
	N     uint32
}

// SessionQuality aggregates the per-session facet files under
// usage-data/facets/.
type SessionQuality struct {
	TotalSessions uint32
	// Outcomes buckets sessions as fully / mostly / partially / not
	// achieved, with everything else in the last slot.
	Outcomes        [5]uint32
	Helpfulness     []Count
	TopCategories   []Count
	Satisfaction    []Count
	Friction        []Count
	SessionTypes    []Count
	SuccessPatterns []Count
}

// facetJSON is one facet file's wire layout. goal_categories,
// user_satisfaction_counts, and friction_counts are count objects;
// the rest are plain strings.
type facetJSON struct {
	Outcome            string            `json:"outcome"`
	Helpfulness        string            `json:"claude_helpfulness"`
	GoalCategories     map[string]uint32 `json:"goal_categories"`
	SatisfactionCounts map[string]uint32 `json:"user_satisfaction_counts"`
	FrictionCounts     map[string]uint32 `json:"friction_counts"`
	SessionType        string            `json:"session_type"`
	PrimarySuccess     string            `json:"primary_success"`
}

// Facets aggregates every *.json facet file. Missing directories and
// unreadable files contribute nothing.
func (s *Scanner) Facets() (*SessionQuality, error) {
	out := &SessionQuality{}

	dir := filepath.Join(s.root, "usage-data", "facets")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}

	helpfulness := map[string]uint32{}
	categories := map[string]uint32{}
	satisfaction := map[string]uint32{}
	friction := map[string]uint32{}
	sessionTypes := map[string]uint32{}
	successes := map[string]uint32{}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var facet facetJSON
		if err := json.Unmarshal(data, &facet); err != nil {
			continue
		}

		out.TotalSessions++

		switch facet.Outcome {
		case "":
		case "fully_achieved":
			out.Outcomes[OutcomeFully]++
		case "mostly_achieved":
			out.Outcomes[OutcomeMostly]++
		case "partially_achieved":
			out.Outcomes[OutcomePartially]++
		case "not_achieved":
			out.Outcomes[OutcomeNot]++
		default:
			out.Outcomes[OutcomeOther]++
		}

		if facet.Helpfulness != "" {
			helpfulness[facet.Helpfulness]++
		}
		for label, n := range facet.GoalCategories {
			categories[label] += n
		}
		for label, n := range facet.SatisfactionCounts {
			satisfaction[label] += n
		}
		for label, n := range facet.FrictionCounts {
			friction[label] += n
		}
		if facet.SessionType != "" {
			sessionTypes[facet.SessionType]++
		}
		if facet.PrimarySuccess != "" {
			successes[facet.PrimarySuccess]++
		}
	}

	out.Helpfulness = sortedCounts(helpfulness, 0)
	out.TopCategories = sortedCounts(categories, 10)
	out.Satisfaction = sortedCounts(satisfaction, 0)
	out.Friction = sortedCounts(friction, 10)
	out.SessionTypes = sortedCounts(sessionTypes, 0)
	out.SuccessPatterns = sortedCounts(successes, 0)
	return out, nil
}

// sortedCounts flattens a tally map into counts sorted descending,
// ties broken by label for stable output. A positive limit truncates.
func sortedCounts(m map[string]uint32, limit int) []Count {
	if len(m) == 0 {
		return nil
	}
	out := make([]Count, 0, len(m))
	for label, n := range m {
		out = append(out, Count{Label: label, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Label < out[j].Label
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
