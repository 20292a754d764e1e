package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/mountbench/mountbench/internal/report"
)

// ReportConfig holds configuration for the report subcommand.
type ReportConfig struct {
	Files    []string // result files, processed in order
	RowLimit int      // rows rendered per table before eliding
	LogLevel string
}

// RunConfig holds configuration for the run subcommand.
type RunConfig struct {
	ImageDir   string   // directory holding <spec>.squashfs images
	Mountpoint string   // where images are mounted during trials
	MountCmds  []string // squashfuse-compatible mount commands to compare
	Runs       int      // trials per (spec, mount, chunks) combination
	Chunks     []int    // chunk counts to test
	Out        string   // output JSON path
	SettleSecs int      // seconds to wait after cache drop and after mount
	LogLevel   string
}

// GenConfig holds configuration for the gen subcommand.
type GenConfig struct {
	Dir            string // directory for content tree and images
	FileSize       int    // bytes per generated file
	FilesPerFolder int
	Seed           int64
	LogLevel       string
}

// ParseReportConfig parses report configuration from flags and environment
// variables. Flags take precedence over environment variables. Positional
// arguments, when present, replace the default result-file list.
func ParseReportConfig(args []string) ReportConfig {
	return parseReportConfigWithFlagSet(flag.NewFlagSet("report", flag.ExitOnError), args)
}

// parseReportConfigWithFlagSet is an internal helper for testing with isolated flag sets.
func parseReportConfigWithFlagSet(fs *flag.FlagSet, args []string) ReportConfig {
	cfg := ReportConfig{
		Files:    report.DefaultFiles,
		RowLimit: 100,
		LogLevel: "info",
	}

	// Read from environment first
	if limit := os.Getenv("MOUNTBENCH_ROW_LIMIT"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			cfg.RowLimit = parsed
		}
	}
	if logLevel := os.Getenv("MOUNTBENCH_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Flags override environment
	fs.IntVar(&cfg.RowLimit, "row-limit", cfg.RowLimit, "rows shown per table (0 = unlimited)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.Parse(args)

	if files := fs.Args(); len(files) > 0 {
		cfg.Files = files
	}

	return cfg
}

// ParseRunConfig parses run configuration from flags and environment
// variables. Flags take precedence over environment variables.
func ParseRunConfig(args []string) RunConfig {
	return parseRunConfigWithFlagSet(flag.NewFlagSet("run", flag.ExitOnError), args)
}

// parseRunConfigWithFlagSet is an internal helper for testing with isolated flag sets.
func parseRunConfigWithFlagSet(fs *flag.FlagSet, args []string) RunConfig {
	cfg := RunConfig{
		ImageDir:   ".",
		MountCmds:  []string{"squashfuse"},
		Runs:       1,
		Chunks:     []int{4, 1},
		Out:        "record.json",
		SettleSecs: 2,
		LogLevel:   "info",
	}

	// Read from environment first
	if runs := os.Getenv("MOUNTBENCH_RUNS"); runs != "" {
		if parsed, err := strconv.Atoi(runs); err == nil && parsed > 0 {
			cfg.Runs = parsed
		}
	}
	if dir := os.Getenv("MOUNTBENCH_IMAGE_DIR"); dir != "" {
		cfg.ImageDir = dir
	}
	if logLevel := os.Getenv("MOUNTBENCH_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Flags override environment
	fs.StringVar(&cfg.ImageDir, "image-dir", cfg.ImageDir, "directory holding <spec>.squashfs images")
	fs.StringVar(&cfg.Mountpoint, "mountpoint", cfg.Mountpoint, "mountpoint directory (default: <image-dir>/mountpoint)")
	fs.IntVar(&cfg.Runs, "runs", cfg.Runs, "trials per mount")
	fs.StringVar(&cfg.Out, "o", cfg.Out, "output JSON file")
	fs.IntVar(&cfg.SettleSecs, "settle", cfg.SettleSecs, "settle seconds after cache drop and mount")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	// Handle repeatable --mount flag
	mounts := make([]string, 0)
	fs.Var((*stringSlice)(&mounts), "mount", "mount command to benchmark (repeatable)")
	chunks := ""
	fs.StringVar(&chunks, "chunks", "", "comma-separated chunk counts (default \"4,1\")")

	fs.Parse(args)

	if len(mounts) > 0 {
		cfg.MountCmds = mounts
	}
	if chunks != "" {
		if parsed := parseChunks(chunks); len(parsed) > 0 {
			cfg.Chunks = parsed
		}
	}
	if cfg.Runs < 1 {
		cfg.Runs = 1
	}

	return cfg
}

// ParseGenConfig parses gen configuration from flags and environment
// variables. Flags take precedence over environment variables.
func ParseGenConfig(args []string) GenConfig {
	return parseGenConfigWithFlagSet(flag.NewFlagSet("gen", flag.ExitOnError), args)
}

// parseGenConfigWithFlagSet is an internal helper for testing with isolated flag sets.
func parseGenConfigWithFlagSet(fs *flag.FlagSet, args []string) GenConfig {
	cfg := GenConfig{
		Dir:            ".",
		FileSize:       20_000_000,
		FilesPerFolder: 8,
		Seed:           42,
		LogLevel:       "info",
	}

	// Read from environment first
	if dir := os.Getenv("MOUNTBENCH_IMAGE_DIR"); dir != "" {
		cfg.Dir = dir
	}
	if logLevel := os.Getenv("MOUNTBENCH_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Flags override environment
	fs.StringVar(&cfg.Dir, "dir", cfg.Dir, "directory for content tree and images")
	fs.IntVar(&cfg.FileSize, "file-size", cfg.FileSize, "bytes per generated file")
	fs.IntVar(&cfg.FilesPerFolder, "files", cfg.FilesPerFolder, "files per folder")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.Parse(args)

	return cfg
}

func parseChunks(value string) []int {
	parsed := make([]int, 0, 2)
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err == nil && n > 0 {
			parsed = append(parsed, n)
		}
	}
	return parsed
}

// stringSlice implements flag.Value for repeatable string flags.
type stringSlice []string

func (s *stringSlice) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func (s *stringSlice) Get() interface{} {
	return []string(*s)
}

func (s *stringSlice) IsBoolFlag() bool {
	return false
}

var _ flag.Value = (*stringSlice)(nil)
var _ flag.Getter = (*stringSlice)(nil)
