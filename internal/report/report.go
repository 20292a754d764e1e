// Package report turns benchmark record files into normalized comparison
// tables: one table per spec group, each mount's duration expressed both as
// a throughput and as a ratio against the squashfuse single-chunk baseline.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/mountbench/mountbench/internal/record"
)

// Baseline selector: the reference trial every other row in the same spec
// group is normalized against.
const (
	baselineMount  = "squashfuse"
	baselineChunks = 1
)

const separatorWidth = 50

// DefaultFiles is the fixed result-file list processed when none are given.
var DefaultFiles = []string{"testdata.json", "record-zstd.json", "record-nocomp.json"}

// NoBaselineError reports a spec group without a squashfuse/n_chunks=1 row.
type NoBaselineError struct {
	File string
	Spec string
}

func (e *NoBaselineError) Error() string {
	return fmt.Sprintf("%s: spec %q has no %s/n_chunks=%d baseline row",
		e.File, e.Spec, baselineMount, baselineChunks)
}

// Row is one flattened, derived row of a spec group's table. DurationMS is
// the scalar mean projected out of the record's nested summary; the nested
// struct is discarded. SpeedMBs and RelDuration are pure functions of the
// other columns.
type Row struct {
	MountName   string
	NChunks     int
	DurationMS  float64
	Filesize    int64
	Spec        string
	SpeedMBs    float64
	RelDuration float64
}

// Aggregator prints the normalized comparison for each result file in order.
type Aggregator struct {
	Files    []string
	RowLimit int // rows rendered per table before eliding
	Out      io.Writer
}

// New returns an aggregator over the default files with the default row
// limit, writing to out.
func New(out io.Writer) *Aggregator {
	return &Aggregator{Files: DefaultFiles, RowLimit: 100, Out: out}
}

// Run processes every file: filename line, one spec block per distinct spec
// in ascending order, then a 50-dash separator. The first error aborts the
// whole run; there is no per-file isolation.
func (a *Aggregator) Run() error {
	for _, file := range a.Files {
		if err := a.runFile(file); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) runFile(file string) error {
	fmt.Fprintln(a.Out, file)
	table, err := record.Load(file)
	if err != nil {
		return err
	}
	for _, spec := range table.Specs() {
		rows, err := deriveGroup(file, spec, table.Group(spec))
		if err != nil {
			return err
		}
		fmt.Fprintln(a.Out, spec)
		renderRows(a.Out, rows, a.RowLimit)
	}
	fmt.Fprintln(a.Out, separator(separatorWidth))
	return nil
}

// deriveGroup flattens a spec group and appends the derived columns.
// Rows keep the group's original order.
func deriveGroup(file, spec string, group record.Table) ([]Row, error) {
	baseline := math.NaN()
	for _, r := range group {
		if r.MountName == baselineMount && r.NChunks == baselineChunks {
			// First match wins; the data is assumed to hold one
			// baseline row per group but duplicates are tolerated.
			baseline = r.DurationMS.Mean
			break
		}
	}
	if math.IsNaN(baseline) {
		return nil, &NoBaselineError{File: file, Spec: spec}
	}
	rows := make([]Row, 0, len(group))
	for _, r := range group {
		dur := r.DurationMS.Mean
		rows = append(rows, Row{
			MountName:   r.MountName,
			NChunks:     r.NChunks,
			DurationMS:  dur,
			Filesize:    r.Filesize,
			Spec:        r.Spec,
			SpeedMBs:    SpeedMBs(r.Filesize, dur),
			RelDuration: round2(dur / baseline),
		})
	}
	return rows, nil
}

// SpeedMBs derives the throughput column: filesize in bytes over duration in
// milliseconds, as whole megabytes per second. A zero duration propagates
// ±Inf; that is rendered as-is, not treated as an error.
func SpeedMBs(filesize int64, durationMS float64) float64 {
	return math.Round(float64(filesize) / durationMS / 1e6 * 1e3)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
