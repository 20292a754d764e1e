// Package report implements the report subcommand: print the normalized
// mount comparison for each benchmark result file.
package report

import (
	"fmt"
	"os"

	"github.com/mountbench/mountbench/internal/config"
	"github.com/mountbench/mountbench/internal/logging"
	"github.com/mountbench/mountbench/internal/report"
)

func Run(args []string) {
	if hasHelpFlag(args) {
		printUsage()
		return
	}
	cfg := config.ParseReportConfig(args)
	log := logging.New("mountbench", cfg.LogLevel)

	agg := report.New(os.Stdout)
	agg.Files = cfg.Files
	agg.RowLimit = cfg.RowLimit
	if err := agg.Run(); err != nil {
		log.Error("report failed", "err", err)
		os.Exit(1)
	}
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" || arg == "help" {
			return true
		}
	}
	return false
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: mountbench report [flags] [files...]")
	fmt.Fprintln(os.Stderr, "flags:")
	fmt.Fprintln(os.Stderr, "  -row-limit N   rows shown per table (default 100, 0 = unlimited)")
	fmt.Fprintln(os.Stderr, "  -log-level L   debug, info, warn, error")
	fmt.Fprintln(os.Stderr, "files default to testdata.json record-zstd.json record-nocomp.json")
}
