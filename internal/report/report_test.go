package report

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mountbench/mountbench/internal/record"
	"github.com/mountbench/mountbench/internal/stats"
)

func writeRecords(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runOn(t *testing.T, paths ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	agg := New(&buf)
	agg.Files = paths
	err := agg.Run()
	return buf.String(), err
}

const twoRowGroup = `[
  {"spec": "A", "mount_name": "squashfuse", "n_chunks": 1, "filesize": 1000000, "duration_ms": {"mean": 1000}},
  {"spec": "A", "mount_name": "fuse2", "n_chunks": 1, "filesize": 1000000, "duration_ms": {"mean": 500}}
]`

func TestBaselineNormalization(t *testing.T) {
	path := writeRecords(t, "records.json", twoRowGroup)
	out, err := runOn(t, path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// speed_mb_s: round(1e6/1000/1e6*1e3) = 1 and 2; ratios 1 and 0.5.
	rows := tableCells(out)
	want := [][]string{
		{"mount_name", "n_chunks", "duration_ms", "filesize", "spec", "speed_mb_s", "rel_duration"},
		{"squashfuse", "1", "1000", "1000000", "A", "1", "1"},
		{"fuse2", "1", "500", "1000000", "A", "2", "0.5"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d table rows, got %d:\n%s", len(want), len(rows), out)
	}
	for i := range want {
		if !equalCells(rows[i], want[i]) {
			t.Fatalf("row %d: expected %v, got %v", i, want[i], rows[i])
		}
	}
}

// tableCells extracts trimmed cell values from every table row in out.
func tableCells(out string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "|") {
			continue
		}
		parts := strings.Split(strings.Trim(line, "|"), "|")
		cells := make([]string, 0, len(parts))
		for _, p := range parts {
			cells = append(cells, strings.TrimSpace(p))
		}
		rows = append(rows, cells)
	}
	return rows
}

func equalCells(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestOutputShape(t *testing.T) {
	path := writeRecords(t, "records.json", twoRowGroup)
	out, err := runOn(t, path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(out, "\n")
	if lines[0] != path {
		t.Fatalf("expected filename first, got %q", lines[0])
	}
	if lines[1] != "A" {
		t.Fatalf("expected spec line, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "+-") {
		t.Fatalf("expected table border, got %q", lines[2])
	}
	sep := separator(50)
	if lines[len(lines)-2] != sep {
		t.Fatalf("expected trailing separator, got %q", lines[len(lines)-2])
	}
}

func TestSpecsPrintedAscending(t *testing.T) {
	path := writeRecords(t, "records.json", `[
	  {"spec": "zstd", "mount_name": "squashfuse", "n_chunks": 1, "filesize": 10, "duration_ms": {"mean": 1}},
	  {"spec": "gzip", "mount_name": "squashfuse", "n_chunks": 1, "filesize": 10, "duration_ms": {"mean": 1}},
	  {"spec": "nocomp", "mount_name": "squashfuse", "n_chunks": 1, "filesize": 10, "duration_ms": {"mean": 1}}
	]`)
	out, err := runOn(t, path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	gzip := strings.Index(out, "\ngzip\n")
	nocomp := strings.Index(out, "\nnocomp\n")
	zstd := strings.Index(out, "\nzstd\n")
	if gzip < 0 || nocomp < 0 || zstd < 0 {
		t.Fatalf("missing spec block:\n%s", out)
	}
	if !(gzip < nocomp && nocomp < zstd) {
		t.Fatalf("spec blocks not in ascending order:\n%s", out)
	}
}

func TestMissingBaselineFails(t *testing.T) {
	path := writeRecords(t, "records.json", `[
	  {"spec": "A", "mount_name": "fuse2", "n_chunks": 1, "filesize": 10, "duration_ms": {"mean": 1}},
	  {"spec": "A", "mount_name": "squashfuse", "n_chunks": 4, "filesize": 10, "duration_ms": {"mean": 1}}
	]`)
	_, err := runOn(t, path)
	var noBase *NoBaselineError
	if !errors.As(err, &noBase) {
		t.Fatalf("expected NoBaselineError, got %v", err)
	}
	if noBase.Spec != "A" {
		t.Fatalf("unexpected spec %q", noBase.Spec)
	}
}

func TestEmptyFile(t *testing.T) {
	path := writeRecords(t, "empty.json", `[]`)
	out, err := runOn(t, path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := path + "\n" + separator(50) + "\n"
	if out != want {
		t.Fatalf("expected filename and separator only, got:\n%s", out)
	}
}

func TestLoadFailureAborts(t *testing.T) {
	good := writeRecords(t, "good.json", twoRowGroup)
	missing := filepath.Join(t.TempDir(), "absent.json")
	out, err := runOn(t, missing, good)
	var loadErr *record.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	// The good file must not have been processed.
	if strings.Contains(out, "squashfuse") {
		t.Fatalf("run was not aborted on first failure:\n%s", out)
	}
}

func TestIdempotent(t *testing.T) {
	path := writeRecords(t, "records.json", twoRowGroup)
	first, err := runOn(t, path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	second, err := runOn(t, path)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if first != second {
		t.Fatalf("output differs between runs:\n%s\n----\n%s", first, second)
	}
}

func TestDeriveGroupTakesFirstBaseline(t *testing.T) {
	group := record.Table{
		{Spec: "A", MountName: "squashfuse", NChunks: 1, Filesize: 100, DurationMS: stats.MeanStd{Mean: 200}},
		{Spec: "A", MountName: "squashfuse", NChunks: 1, Filesize: 100, DurationMS: stats.MeanStd{Mean: 400}},
	}
	rows, err := deriveGroup("f.json", "A", group)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if rows[0].RelDuration != 1 || rows[1].RelDuration != 2 {
		t.Fatalf("expected ratios against the first baseline row, got %v and %v",
			rows[0].RelDuration, rows[1].RelDuration)
	}
}

func TestSpeedMBs(t *testing.T) {
	cases := []struct {
		filesize int64
		duration float64
		want     float64
	}{
		{1000000, 1000, 1},
		{1000000, 500, 2},
		{320000000, 1300, 246}, // round(246.15...)
		{100, 0, math.Inf(1)},
	}
	for _, tc := range cases {
		got := SpeedMBs(tc.filesize, tc.duration)
		if got != tc.want {
			t.Fatalf("SpeedMBs(%d, %f) = %f, want %f", tc.filesize, tc.duration, got, tc.want)
		}
	}
}

func TestZeroDurationPropagates(t *testing.T) {
	path := writeRecords(t, "records.json", `[
	  {"spec": "A", "mount_name": "squashfuse", "n_chunks": 1, "filesize": 100, "duration_ms": {"mean": 0}}
	]`)
	out, err := runOn(t, path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "+Inf") {
		t.Fatalf("expected +Inf speed in output:\n%s", out)
	}
}
