package main

import (
	"fmt"
	"log/slog"

	"bugrelay/internal/config"
	"bugrelay/internal/evidence"
	"bugrelay/internal/kanban"
	"bugrelay/internal/logging"
	"bugrelay/internal/report"
	"bugrelay/internal/workflow"
)

// loadConfig reads the config file and initializes the global logger from
// its logging section.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	return cfg, nil
}

// buildAdapters constructs an adapter per enabled, valid backend. A backend
// failing validation is logged at critical severity and skipped; the others
// stay usable.
func buildAdapters(cfg *config.Config, logger *slog.Logger) ([]report.Adapter, error) {
	invalid := map[report.BackendKind]bool{}
	for _, cerr := range cfg.Validate() {
		logging.Critical(logger, "backend disabled: configuration incomplete",
			"backend", cerr.Backend, "err", cerr)
		invalid[cerr.Backend] = true
	}

	var adapters []report.Adapter

	if cfg.Kanban.Enabled && !invalid[report.BackendKanban] {
		client, err := kanban.New(cfg.Kanban.BaseURL, cfg.Kanban.APIKey, cfg.Kanban.APIToken,
			kanban.WithLogger(logging.New("kanban")),
			kanban.WithTimeout(cfg.Kanban.Timeout()))
		if err != nil {
			return nil, fmt.Errorf("create kanban client: %w", err)
		}
		adapters = append(adapters, kanban.NewAdapter(client, kanban.Lists{
			Fail:    cfg.Kanban.Lists.Fail,
			QA:      cfg.Kanban.Lists.QA,
			Ongoing: cfg.Kanban.Lists.Ongoing,
			Done:    cfg.Kanban.Lists.Done,
		}, logging.New("kanban")))
	}

	if cfg.Workflow.Enabled && !invalid[report.BackendWorkflow] {
		client, err := workflow.New(cfg.Workflow.BaseURL, cfg.Workflow.User, cfg.Workflow.APIToken,
			workflow.WithLogger(logging.New("workflow")),
			workflow.WithTimeout(cfg.Workflow.Timeout()))
		if err != nil {
			return nil, fmt.Errorf("create workflow client: %w", err)
		}
		adapters = append(adapters, workflow.NewAdapter(client,
			cfg.Workflow.Project, cfg.Workflow.IssueType, cfg.Workflow.SecurityLevelID,
			logging.New("workflow")))
	}

	return adapters, nil
}

// buildLocator constructs the artifact locator over the configured
// evidence directories.
func buildLocator(cfg *config.Config) *evidence.Locator {
	return evidence.NewLocator(
		cfg.Evidence.ScreenshotDir,
		cfg.Evidence.VideoDir,
		cfg.Evidence.TraceDir,
		logging.New("evidence"))
}
