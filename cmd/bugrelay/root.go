package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "bugrelay",
	Short: "Report automated-test outcomes to defect trackers",
	Long: "Bugrelay turns test run results into defect-tracker records: it opens one\n" +
		"record per failing (case id, environment, target) identity, reopens it on\n" +
		"repeated failure, closes it on confirmed fix, and attaches run evidence.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
