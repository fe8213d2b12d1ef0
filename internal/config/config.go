package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Source modes.
const (
	ModeFetch       = "fetch"
	ModePassThrough = "pass-through"
)

// Config is the top-level configuration structure.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Source   SourceConfig `yaml:"source"`
	Agent    AgentConfig  `yaml:"agent"`
	Output   OutputConfig `yaml:"output"`
	Runs     RunsConfig   `yaml:"runs"`
}

type SourceConfig struct {
	Mode     string `yaml:"mode"`
	Timeout  string `yaml:"timeout"`
	MaxBytes int64  `yaml:"max_bytes"`
}

type AgentConfig struct {
	Command string `yaml:"command"`
	Timeout string `yaml:"timeout"`
}

type OutputConfig struct {
	GitHubOutput    bool   `yaml:"github_output"`
	LegacySetOutput bool   `yaml:"legacy_set_output"`
	PatchFile       string `yaml:"patch_file"`
	StepSummary     bool   `yaml:"step_summary"`
}

type RunsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Issue captures a validation problem with a config field.
type Issue struct {
	Field   string
	Message string
}

// ValidationError aggregates config validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error renders validation errors as a multi-line string.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "config validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var issues []Issue
	add := func(field, msg string) { issues = append(issues, Issue{Field: field, Message: msg}) }

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		add("log_level", fmt.Sprintf("unknown level %q", c.LogLevel))
	}
	switch c.Source.Mode {
	case ModeFetch, ModePassThrough:
	default:
		add("source.mode", fmt.Sprintf("must be %q or %q", ModeFetch, ModePassThrough))
	}
	if _, err := parseDuration(c.Source.Timeout); err != nil {
		add("source.timeout", err.Error())
	}
	if c.Source.MaxBytes < 0 {
		add("source.max_bytes", "must not be negative")
	}
	if strings.TrimSpace(c.Agent.Command) == "" {
		add("agent.command", "is required")
	}
	if _, err := parseDuration(c.Agent.Timeout); err != nil {
		add("agent.timeout", err.Error())
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// SourceTimeout returns the fetch timeout; zero means none.
func (c *Config) SourceTimeout() time.Duration {
	d, _ := parseDuration(c.Source.Timeout)
	return d
}

// AgentTimeout returns the agent command timeout; zero means none.
func (c *Config) AgentTimeout() time.Duration {
	d, _ := parseDuration(c.Agent.Timeout)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q is negative", s)
	}
	return d, nil
}

// Load resolves config from project → user → defaults, then applies
// environment overrides.
func Load() (*Config, error) {
	cfg := defaults()

	// user-level config
	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, ".patchgate", "config.yaml")
		if err := mergeFile(cfg, userPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
	}

	// project-level config (highest priority)
	projectPath := filepath.Join(".patchgate", "config.yaml")
	if err := mergeFile(cfg, projectPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func mergeFile(dst *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if lvl := os.Getenv("PATCHGATE_LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = strings.ToLower(lvl)
	}
	if cmd := os.Getenv("PATCHGATE_AGENT_COMMAND"); cmd != "" {
		cfg.Agent.Command = cmd
	}
}

func defaults() *Config {
	return &Config{
		LogLevel: "info",
		Source: SourceConfig{
			Mode:     ModeFetch,
			Timeout:  "30s",
			MaxBytes: 1 << 20,
		},
		Agent: AgentConfig{
			Command: "mock",
			Timeout: "600s",
		},
		Output: OutputConfig{
			GitHubOutput: true,
			PatchFile:    filepath.Join(".patchgate", "patch.diff"),
			StepSummary:  true,
		},
		Runs: RunsConfig{
			Enabled: true,
		},
	}
}
