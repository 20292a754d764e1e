// Package gen implements the gen subcommand: build the squashfs test images.
package gen

import (
	"fmt"
	"os"

	"github.com/mountbench/mountbench/internal/config"
	"github.com/mountbench/mountbench/internal/genimg"
	"github.com/mountbench/mountbench/internal/logging"
)

func Run(args []string) {
	if hasHelpFlag(args) {
		printUsage()
		return
	}
	cfg := config.ParseGenConfig(args)
	log := logging.New("mountbench", cfg.LogLevel)

	if err := genimg.New(cfg, log).Run(); err != nil {
		log.Error("image generation failed", "err", err)
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
	fmt.Fprintln(os.Stderr, "usage: mountbench gen [flags]")
	fmt.Fprintln(os.Stderr, "flags:")
	fmt.Fprintln(os.Stderr, "  -dir D        directory for content tree and images (default .)")
	fmt.Fprintln(os.Stderr, "  -file-size N  bytes per generated file (default 20000000)")
	fmt.Fprintln(os.Stderr, "  -files N      files per folder (default 8)")
	fmt.Fprintln(os.Stderr, "  -seed N       random seed (default 42)")
	fmt.Fprintln(os.Stderr, "  -log-level L  debug, info, warn, error")
}
