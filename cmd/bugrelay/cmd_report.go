package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bugrelay/internal/ingest"
	"bugrelay/internal/logging"
	"bugrelay/internal/report"
)

var reportFlags struct {
	configPath  string
	resultsPath string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Dispatch a results file to the enabled defect-tracking backends",
	Long: `Reads a runner-produced results JSON file and runs one dispatch per test:
resolve the open record, decide create/reopen/close, execute it, attach
evidence. Backend failures are logged and never fail the command.`,
	RunE: runReport,
}

func init() {
	f := reportCmd.Flags()
	f.StringVarP(&reportFlags.configPath, "config", "c", "bugrelay.yaml", "Config file path")
	f.StringVarP(&reportFlags.resultsPath, "results", "r", "", "Results JSON file (required)")

	_ = reportCmd.MarkFlagRequired("results")
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(reportFlags.configPath)
	if err != nil {
		return err
	}

	logger := logging.New("report")
	adapters, err := buildAdapters(cfg, logger)
	if err != nil {
		return err
	}
	if len(adapters) == 0 {
		return fmt.Errorf("no usable backend: enable and configure kanban and/or workflow in %s", reportFlags.configPath)
	}

	results, err := ingest.LoadFile(reportFlags.resultsPath)
	if err != nil {
		return err
	}

	orch := report.NewOrchestrator(adapters, buildLocator(cfg), logger)

	dispatched, skipped := 0, 0
	for _, r := range results {
		if err := r.Validate(); err != nil {
			logger.Warn("result skipped", "err", err)
			skipped++
			continue
		}
		orch.Dispatch(cmd.Context(), r.Test, r.Identity(), r.Outcome())
		dispatched++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Dispatched %d result(s) to %d backend(s), skipped %d\n",
		dispatched, len(adapters), skipped)
	return nil
}
