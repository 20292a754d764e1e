package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mountbench/mountbench/internal/config"
)

// fakeMount materializes a fixed tree in the mountpoint instead of driving
// a FUSE process, so trials run in-process.
type fakeMount struct {
	name    string
	files   map[string]string
	mounted bool
	mounts  int
}

func (m *fakeMount) Name() string { return m.name }

func (m *fakeMount) Mount(source, dest string) error {
	if m.mounted {
		return fmt.Errorf("%s already mounted", m.name)
	}
	for name, content := range m.files {
		path := filepath.Join(dest, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	m.mounted = true
	m.mounts++
	return nil
}

func (m *fakeMount) Unmount() error {
	if !m.mounted {
		return fmt.Errorf("%s not mounted", m.name)
	}
	m.mounted = false
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRunner(t *testing.T, cfg config.RunConfig, trees map[string]map[string]string) *Runner {
	t.Helper()
	r := New(cfg, discardLogger())
	r.sleep = func(time.Duration) {}
	r.dropCaches = func() error { return nil }
	r.newMount = func(command string) Mount {
		// Every spec image carries the same content, as mksquashfs builds
		// them all from one tree.
		return &fakeMount{name: command, files: trees[command]}
	}
	return r
}

func writeImages(t *testing.T, dir string, specs []string) {
	t.Helper()
	for _, spec := range specs {
		path := filepath.Join(dir, spec+".squashfs")
		if err := os.WriteFile(path, []byte("squashfs-image-stub"), 0o644); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
}

func TestRunProducesRecordMatrix(t *testing.T) {
	dir := t.TempDir()
	specs := []string{"nocomp", "zstd"}
	writeImages(t, dir, specs)

	tree := map[string]string{"a.txt": "alpha", "sub/b.txt": "beta"}
	cfg := config.RunConfig{
		ImageDir:  dir,
		MountCmds: []string{"squashfuse", "squashfuse_ll"},
		Runs:      2,
		Chunks:    []int{4, 1},
	}
	r := testRunner(t, cfg, map[string]map[string]string{
		"squashfuse":    tree,
		"squashfuse_ll": tree,
	})

	records, err := r.Run(context.Background(), specs)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// 2 chunk counts x 2 specs x 2 mounts.
	if len(records) != 8 {
		t.Fatalf("expected 8 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.DurationMS.Count != 2 {
			t.Fatalf("expected 2 samples per record, got %d", rec.DurationMS.Count)
		}
		if rec.Filesize != int64(len("squashfs-image-stub")) {
			t.Fatalf("unexpected filesize %d", rec.Filesize)
		}
		if rec.Spec != "nocomp" && rec.Spec != "zstd" {
			t.Fatalf("unexpected spec %q", rec.Spec)
		}
	}
	if records[0].NChunks != 4 || records[len(records)-1].NChunks != 1 {
		t.Fatalf("expected chunk counts in configured order, got %d..%d",
			records[0].NChunks, records[len(records)-1].NChunks)
	}
}

func TestRunFailsOnContentMismatch(t *testing.T) {
	dir := t.TempDir()
	specs := []string{"gzip"}
	writeImages(t, dir, specs)

	cfg := config.RunConfig{
		ImageDir:  dir,
		MountCmds: []string{"good", "bad"},
		Runs:      1,
		Chunks:    []int{1},
	}
	r := testRunner(t, cfg, map[string]map[string]string{
		"good": {"a.txt": "alpha"},
		"bad":  {"a.txt": "ALPHA"},
	})

	if _, err := r.Run(context.Background(), specs); err == nil {
		t.Fatalf("expected content hash mismatch error")
	}
}

func TestRunFailsOnMissingImage(t *testing.T) {
	cfg := config.RunConfig{
		ImageDir:  t.TempDir(),
		MountCmds: []string{"squashfuse"},
		Runs:      1,
		Chunks:    []int{1},
	}
	r := testRunner(t, cfg, map[string]map[string]string{
		"squashfuse": {"a.txt": "alpha"},
	})
	if _, err := r.Run(context.Background(), []string{"absent"}); err == nil {
		t.Fatalf("expected stat error for missing image")
	}
}

func TestTrialUnmountsAfterEveryRun(t *testing.T) {
	dir := t.TempDir()
	writeImages(t, dir, []string{"gzip"})

	mount := &fakeMount{name: "squashfuse", files: map[string]string{"a.txt": "alpha"}}
	cfg := config.RunConfig{
		ImageDir:  dir,
		MountCmds: []string{"squashfuse"},
		Runs:      3,
		Chunks:    []int{1},
	}
	r := testRunner(t, cfg, nil)
	r.newMount = func(string) Mount { return mount }

	if _, err := r.Run(context.Background(), []string{"gzip"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if mount.mounts != 3 {
		t.Fatalf("expected 3 mount cycles, got %d", mount.mounts)
	}
	if mount.mounted {
		t.Fatalf("mount left mounted after run")
	}
}

func TestViewTracksTrial(t *testing.T) {
	dir := t.TempDir()
	writeImages(t, dir, []string{"zstd"})

	cfg := config.RunConfig{
		ImageDir:  dir,
		MountCmds: []string{"squashfuse"},
		Runs:      1,
		Chunks:    []int{2},
	}
	r := testRunner(t, cfg, map[string]map[string]string{
		"squashfuse": {"a.txt": "alpha"},
	})
	if _, err := r.Run(context.Background(), []string{"zstd"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	v := r.View()
	if v.Image != "zstd" || v.Mount != "squashfuse" || v.Chunks != 2 {
		t.Fatalf("unexpected view %+v", v)
	}
	if v.Phase != "verify" {
		t.Fatalf("expected final phase verify, got %q", v.Phase)
	}
}
