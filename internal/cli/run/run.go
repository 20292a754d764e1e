// Package run implements the run subcommand: execute the benchmark matrix
// and write the records the report subcommand consumes.
package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mountbench/mountbench/internal/config"
	"github.com/mountbench/mountbench/internal/genimg"
	"github.com/mountbench/mountbench/internal/logging"
	"github.com/mountbench/mountbench/internal/progress"
	"github.com/mountbench/mountbench/internal/record"
	"github.com/mountbench/mountbench/internal/runner"
)

func Run(args []string) {
	if hasHelpFlag(args) {
		printUsage()
		return
	}
	cfg := config.ParseRunConfig(args)
	log := logging.New("mountbench", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	r := runner.New(cfg, log)
	stop := progress.RenderTrial(ctx, os.Stderr, r.View)
	records, err := r.Run(ctx, genimg.SpecNames())
	stop()
	if err != nil {
		log.Error("benchmark run failed", "err", err)
		os.Exit(1)
	}

	if err := record.Write(cfg.Out, records); err != nil {
		log.Error("write records failed", "err", err)
		os.Exit(1)
	}
	log.Info("records written", "path", cfg.Out, "records", len(records))
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
	fmt.Fprintln(os.Stderr, "usage: mountbench run [flags]")
	fmt.Fprintln(os.Stderr, "flags:")
	fmt.Fprintln(os.Stderr, "  -image-dir D   directory holding <spec>.squashfs images (default .)")
	fmt.Fprintln(os.Stderr, "  -mountpoint P  mountpoint directory (default <image-dir>/mountpoint)")
	fmt.Fprintln(os.Stderr, "  -mount CMD     mount command to benchmark, repeatable (default squashfuse)")
	fmt.Fprintln(os.Stderr, "  -runs N        trials per mount (default 1, env MOUNTBENCH_RUNS)")
	fmt.Fprintln(os.Stderr, "  -chunks LIST   comma-separated chunk counts (default 4,1)")
	fmt.Fprintln(os.Stderr, "  -settle N      settle seconds after cache drop and mount (default 2)")
	fmt.Fprintln(os.Stderr, "  -o FILE        output JSON file (default record.json)")
	fmt.Fprintln(os.Stderr, "  -log-level L   debug, info, warn, error")
}
