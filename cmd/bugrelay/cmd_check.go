package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bugrelay/internal/logging"
	"bugrelay/internal/report"
)

var checkFlags struct {
	configPath string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and probe each enabled backend",
	Long: `Loads the config, validates every enabled backend, and runs a read-only
open-record search against each one with a probe identity. Exits non-zero
when no backend is usable.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkFlags.configPath, "config", "c", "bugrelay.yaml", "Config file path")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(checkFlags.configPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, cerr := range cfg.Validate() {
		fmt.Fprintf(out, "%-10s misconfigured: %v\n", cerr.Backend, cerr.Missing)
	}

	adapters, err := buildAdapters(cfg, logging.New("check"))
	if err != nil {
		return err
	}
	if len(adapters) == 0 {
		return fmt.Errorf("no usable backend")
	}

	// An identity no real test produces; the probe only verifies that the
	// backend accepts our search query and credentials.
	probe := report.TestIdentity{CaseID: "PROBE-T000", Environment: "check", Target: "none"}

	usable := 0
	for _, adapter := range adapters {
		_, err := adapter.FindOpenRecord(cmd.Context(), probe)
		if err != nil {
			fmt.Fprintf(out, "%-10s FAIL: %v\n", adapter.Backend(), err)
			continue
		}
		fmt.Fprintf(out, "%-10s OK (intake=%s, done=%s)\n",
			adapter.Backend(), adapter.IntakeState(), adapter.DoneState())
		usable++
	}

	if usable == 0 {
		return fmt.Errorf("all backends failed the probe search")
	}
	return nil
}
