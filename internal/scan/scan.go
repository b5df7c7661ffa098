// Package scan provides read-only aggregators over the agent's data
// directory (~/.claude by default): input history, the precomputed
// stats cache, debug log metadata, usage facets, and team configs.
// Scanners never write, and missing or unreadable data degrades to
// empty aggregates.
package scan

import (
	"os"
	"path/filepath"

	"github.com/ralphlab/ralph/internal/logging"
)

// Scanner reads aggregates from one agent data directory.
type Scanner struct {
	root string
	log  *logging.Logger
}

// NewScanner creates a Scanner over root. An empty root resolves to
// $HOME/.claude.
func NewScanner(root string) *Scanner {
	if root == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			root = filepath.Join(home, ".claude")
		}
	}
	return &Scanner{
		root: root,
		log:  logging.With("component", "scan"),
	}
}

// Root returns the directory this scanner reads from.
func (s *Scanner) Root() string {
	return s.root
}
