package main

import (
	"fmt"
	"os"

	"github.com/mountbench/mountbench/internal/cli/gen"
	"github.com/mountbench/mountbench/internal/cli/report"
	"github.com/mountbench/mountbench/internal/cli/run"
)

const version = "v0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}
	if hasVersionFlag(args) {
		fmt.Printf("mountbench %s\n", version)
		return
	}

	cmdName := args[0]
	switch cmdName {
	case "report":
		report.Run(args[1:])
		return
	case "run":
		run.Run(args[1:])
		return
	case "gen":
		gen.Run(args[1:])
		return
	default:
		if hasHelpFlag(args) {
			printUsage()
			return
		}
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmdName)
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: mountbench <command> [args]")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  gen     generate squashfs test images")
	fmt.Fprintln(os.Stderr, "  run     benchmark mounts and write record files")
	fmt.Fprintln(os.Stderr, "  report  print the normalized comparison tables")
	fmt.Fprintln(os.Stderr, "run 'mountbench <command> --help' for command flags")
}

func hasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			return true
		}
	}
	return false
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" || arg == "help" {
			return true
		}
	}
	return false
}
