// Package record loads benchmark result files: JSON arrays of one record
// per (spec, mount, chunk count) trial, as written by the run command.
package record

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/mountbench/mountbench/internal/stats"
)

// Record is one benchmark trial result.
type Record struct {
	MountName  string        `json:"mount_name"`
	NChunks    int           `json:"n_chunks"`
	DurationMS stats.MeanStd `json:"duration_ms"`
	Filesize   int64         `json:"filesize"`
	Spec       string        `json:"spec"`
}

// Table is the ordered contents of one result file. Rows keep file order
// and carry no uniqueness constraint.
type Table []Record

// LoadError reports a result file that is missing or not a JSON array.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SchemaError reports a row missing one of the required fields.
type SchemaError struct {
	Path  string
	Row   int
	Field string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: row %d: missing field %q", e.Path, e.Row, e.Field)
}

// rawRecord mirrors Record with pointer fields so absent keys are
// distinguishable from zero values.
type rawRecord struct {
	MountName  *string     `json:"mount_name"`
	NChunks    *int        `json:"n_chunks"`
	DurationMS *rawMeanStd `json:"duration_ms"`
	Filesize   *int64      `json:"filesize"`
	Spec       *string     `json:"spec"`
}

type rawMeanStd struct {
	Mean  *float64 `json:"mean"`
	Std   float64  `json:"std"`
	Min   float64  `json:"min"`
	Max   float64  `json:"max"`
	Count int      `json:"count"`
}

// Load reads one result file. A missing or malformed file yields a
// *LoadError; a row without spec, mount_name, n_chunks, filesize or
// duration_ms.mean yields a *SchemaError. There is no recovery: the first
// failure is returned and the caller is expected to abort.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	table := make(Table, 0, len(raw))
	for i, r := range raw {
		if field, ok := r.missingField(); !ok {
			return nil, &SchemaError{Path: path, Row: i, Field: field}
		}
		table = append(table, Record{
			MountName: *r.MountName,
			NChunks:   *r.NChunks,
			DurationMS: stats.MeanStd{
				Mean:  *r.DurationMS.Mean,
				Std:   r.DurationMS.Std,
				Min:   r.DurationMS.Min,
				Max:   r.DurationMS.Max,
				Count: r.DurationMS.Count,
			},
			Filesize: *r.Filesize,
			Spec:     *r.Spec,
		})
	}
	return table, nil
}

func (r rawRecord) missingField() (string, bool) {
	switch {
	case r.Spec == nil:
		return "spec", false
	case r.MountName == nil:
		return "mount_name", false
	case r.NChunks == nil:
		return "n_chunks", false
	case r.Filesize == nil:
		return "filesize", false
	case r.DurationMS == nil:
		return "duration_ms", false
	case r.DurationMS.Mean == nil:
		return "duration_ms.mean", false
	}
	return "", true
}

// Write marshals the table as a pretty-printed JSON array, the format Load
// reads back.
func Write(path string, t Table) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Specs returns the distinct spec values in ascending lexicographic order.
func (t Table) Specs() []string {
	seen := make(map[string]struct{})
	specs := make([]string, 0, 4)
	for _, r := range t {
		if _, ok := seen[r.Spec]; ok {
			continue
		}
		seen[r.Spec] = struct{}{}
		specs = append(specs, r.Spec)
	}
	sort.Strings(specs)
	return specs
}

// Group returns the rows with the given spec, in original table order.
func (t Table) Group(spec string) Table {
	group := make(Table, 0, len(t))
	for _, r := range t {
		if r.Spec == spec {
			group = append(group, r)
		}
	}
	return group
}
