// Package config loads and validates ralph's per-project configuration.
// Configuration lives in .ralph.yaml at the project root; every field has a
// sensible default so the file is optional.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultMaxIterations  = 50
	DefaultStopWord       = "DONE"
	DefaultStallThreshold = 5
	DefaultAgentCommand   = "claude"
)

// Config holds loop and tooling settings from .ralph.yaml.
type Config struct {
	Loop    LoopConfig  `yaml:"loop"`
	Agent   AgentConfig `yaml:"agent"`
	LogFile string      `yaml:"log_file"`
}

// LoopConfig controls iteration limits and completion detection.
type LoopConfig struct {
	// MaxIterations is the hard cap on iterations before the loop
	// terminates with reason max_reached.
	MaxIterations int `yaml:"max_iterations"`

	// StopWord signals completion when found (case-insensitively) in
	// progress.md. Must be non-empty.
	StopWord string `yaml:"stop_word"`

	// StallThreshold aborts the run after this many consecutive identical
	// iteration outcomes. Zero disables stall detection.
	StallThreshold int `yaml:"stall_threshold"`

	// Checkpoints enables best-effort git commits between iterations.
	Checkpoints bool `yaml:"checkpoints"`
}

// AgentConfig describes how the agent is launched in its pane.
type AgentConfig struct {
	// Command is the agent executable run against each iteration prompt.
	Command string `yaml:"command"`

	// Args are extra arguments appended to the agent command line.
	Args []string `yaml:"args"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Loop: LoopConfig{
			MaxIterations:  DefaultMaxIterations,
			StopWord:       DefaultStopWord,
			StallThreshold: DefaultStallThreshold,
			Checkpoints:    true,
		},
		Agent: AgentConfig{
			Command: DefaultAgentCommand,
		},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Load reads and parses .ralph.yaml from the given project directory.
// A missing file yields the defaults; a present file is validated.
func Load(projectDir string) (*Config, error) {
	configPath := filepath.Join(projectDir, ".ralph.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that all config values are usable.
func Validate(cfg *Config) error {
	if cfg.Loop.MaxIterations <= 0 {
		return ValidationError{Field: "loop.max_iterations", Message: "must be positive"}
	}
	if cfg.Loop.StopWord == "" {
		return ValidationError{Field: "loop.stop_word", Message: "must not be empty"}
	}
	if cfg.Loop.StallThreshold < 0 {
		return ValidationError{Field: "loop.stall_threshold", Message: "must not be negative"}
	}
	if cfg.Agent.Command == "" {
		return ValidationError{Field: "agent.command", Message: "must not be empty"}
	}
	return nil
}
