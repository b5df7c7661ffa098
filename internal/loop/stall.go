package loop

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/ralphlab/ralph/internal/workspace"
)

// stallDetector aborts runs that spin without effect. An iteration
// counts toward a stall when the workspace fingerprint is identical to
// the previous iteration's.
type stallDetector struct {
	threshold int
	last      string
	run       int
}

func newStallDetector(threshold int) *stallDetector {
	return &stallDetector{threshold: threshold}
}

// Observe records one post-iteration fingerprint and reports whether
// the stall threshold has been reached.
func (s *stallDetector) Observe(fingerprint string) bool {
	if s.threshold <= 0 {
		return false
	}
	if fingerprint == s.last {
		s.run++
	} else {
		s.last = fingerprint
		s.run = 1
	}
	return s.run >= s.threshold
}

// workspaceFingerprint hashes the files an iteration is expected to
// advance. Identical fingerprints across iterations mean the agent is
// making no observable progress.
func (d *Driver) workspaceFingerprint() (string, error) {
	h := sha256.New()
	for _, name := range []string{workspace.ProgressFile, workspace.TasksFile, workspace.GuardrailsFile} {
		content, err := d.engine.Store().Read(name)
		if err != nil {
			return "", err
		}
		h.Write([]byte(content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
