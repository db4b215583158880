// Package config loads the reporting configuration from a YAML file.
// Secrets can be referenced as ${ENV_VAR} and are expanded at load time.
// Validation is per backend: a misconfigured backend disables only itself.
package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"bugrelay/internal/report"
)

// Config is the full process configuration, read once at startup and passed
// by reference into the orchestrator, adapters, and resolver.
type Config struct {
	Logging  Logging  `yaml:"logging"`
	Evidence Evidence `yaml:"evidence"`
	Kanban   Kanban   `yaml:"kanban"`
	Workflow Workflow `yaml:"workflow"`
}

// Logging selects the slog level and handler format.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Evidence names the directories the UI layer writes artifacts into.
type Evidence struct {
	ScreenshotDir string `yaml:"screenshot_dir"`
	VideoDir      string `yaml:"video_dir"`
	TraceDir      string `yaml:"trace_dir"`
}

// Lists holds the four board list ids.
type Lists struct {
	Fail    string `yaml:"fail"`
	QA      string `yaml:"qa"`
	Ongoing string `yaml:"ongoing"`
	Done    string `yaml:"done"`
}

// Kanban configures the list-based board backend.
type Kanban struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	APIToken       string `yaml:"api_token"`
	Lists          Lists  `yaml:"lists"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Workflow configures the status-based issue tracker backend.
type Workflow struct {
	Enabled         bool   `yaml:"enabled"`
	BaseURL         string `yaml:"base_url"`
	User            string `yaml:"user"`
	APIToken        string `yaml:"api_token"`
	Project         string `yaml:"project"`
	IssueType       string `yaml:"issue_type"`
	SecurityLevelID string `yaml:"security_level_id"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured request timeout, defaulting to 30s.
func timeout(seconds int) time.Duration {
	if seconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(seconds) * time.Second
}

// Timeout returns the board request timeout.
func (k Kanban) Timeout() time.Duration { return timeout(k.TimeoutSeconds) }

// Timeout returns the tracker request timeout.
func (w Workflow) Timeout() time.Duration { return timeout(w.TimeoutSeconds) }

// Load reads and parses a config file, expanding ${ENV} references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses config bytes, expanding ${ENV} references.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))
	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Kanban.BaseURL == "" {
		c.Kanban.BaseURL = "https://api.trello.com/1"
	}
	if c.Workflow.IssueType == "" {
		c.Workflow.IssueType = "Bug"
	}
}

// Validate checks each enabled backend for required settings. One
// *report.ConfigError per misconfigured backend; disabled backends are
// never validated. An empty result means every enabled backend is usable.
func (c *Config) Validate() []*report.ConfigError {
	var errs []*report.ConfigError

	if c.Kanban.Enabled {
		var missing []string
		for _, f := range []struct{ name, val string }{
			{"api_key", c.Kanban.APIKey},
			{"api_token", c.Kanban.APIToken},
			{"lists.fail", c.Kanban.Lists.Fail},
			{"lists.qa", c.Kanban.Lists.QA},
			{"lists.ongoing", c.Kanban.Lists.Ongoing},
			{"lists.done", c.Kanban.Lists.Done},
		} {
			if f.val == "" {
				missing = append(missing, f.name)
			}
		}
		if len(missing) > 0 {
			errs = append(errs, &report.ConfigError{Backend: report.BackendKanban, Missing: missing})
		}
	}

	if c.Workflow.Enabled {
		var missing []string
		for _, f := range []struct{ name, val string }{
			{"base_url", c.Workflow.BaseURL},
			{"user", c.Workflow.User},
			{"api_token", c.Workflow.APIToken},
			{"project", c.Workflow.Project},
			{"issue_type", c.Workflow.IssueType},
		} {
			if f.val == "" {
				missing = append(missing, f.name)
			}
		}
		if len(missing) > 0 {
			errs = append(errs, &report.ConfigError{Backend: report.BackendWorkflow, Missing: missing})
		}
	}

	return errs
}
