package scan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

// TeamMember is one member entry from a team's config.json.
type TeamMember struct {
	Name       string `json:"name"`
	AgentID    string `json:"agentId"`
	AgentType  string `json:"agentType"`
	Model      string `json:"model"`
	Cwd        string `json:"cwd"`
	TmuxPaneID string `json:"tmuxPaneId"`
}

// Team is a parsed team configuration.
type Team struct {
	Name          string
	Members       []TeamMember
	LeadAgentID   string
	LeadSessionID string
}

type teamConfigJSON struct {
	Members       []TeamMember `json:"members"`
	LeadAgentID   string       `json:"leadAgentId"`
	LeadSessionID string       `json:"leadSessionId"`
}

// Teams scans teams/<name>/config.json files, sorted by team name.
// Directories without a config and malformed configs are skipped.
func (s *Scanner) Teams() ([]Team, error) {
	dir := filepath.Join(s.root, "teams")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var teams []Team
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		configPath := filepath.Join(dir, entry.Name(), "config.json")
		data, err := os.ReadFile(configPath)
		if err != nil {
			continue
		}

		var wire teamConfigJSON
		if err := json.Unmarshal(data, &wire); err != nil {
			s.log.Warn("skipping malformed team config", "path", configPath, "error", err)
			continue
		}

		members := make([]TeamMember, 0, len(wire.Members))
		for _, m := range wire.Members {
			if m.Name == "" {
				continue
			}
			if m.AgentType == "" {
				m.AgentType = "general-purpose"
			}
			members = append(members, m)
		}

		teams = append(teams, Team{
			Name:          entry.Name(),
			Members:       members,
			LeadAgentID:   wire.LeadAgentID,
			LeadSessionID: wire.LeadSessionID,
		})
	}

	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}
