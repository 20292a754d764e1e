// Package runner executes mount benchmark trials: for every squashfs image
// and mount command it mounts the image, times a full parallel read of the
// tree, verifies content hashes across mounts, and emits one record per
// (spec, mount, chunk count) combination.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mountbench/mountbench/internal/config"
	"github.com/mountbench/mountbench/internal/progress"
	"github.com/mountbench/mountbench/internal/record"
	"github.com/mountbench/mountbench/internal/stats"
)

// Runner runs the full benchmark matrix. The hook fields default to the
// real implementations and exist so tests can run trials without root,
// FUSE, or wall-clock sleeps.
type Runner struct {
	cfg   config.RunConfig
	log   *slog.Logger
	meter *progress.Meter

	mu   sync.Mutex
	view progress.TrialView

	sleep      func(time.Duration)
	dropCaches func() error
	newMount   func(command string) Mount
}

func New(cfg config.RunConfig, log *slog.Logger) *Runner {
	return &Runner{
		cfg:        cfg,
		log:        log,
		meter:      progress.NewMeter(),
		sleep:      time.Sleep,
		dropCaches: dropPageCaches,
		newMount:   func(command string) Mount { return NewSquashfuse(command) },
	}
}

// View returns the current trial state for the live display.
func (r *Runner) View() progress.TrialView {
	r.mu.Lock()
	v := r.view
	r.mu.Unlock()
	v.Stats = r.meter.Snapshot()
	return v
}

func (r *Runner) setTrial(image, mount string, chunks, run int) {
	r.mu.Lock()
	r.view.Image = image
	r.view.Mount = mount
	r.view.Chunks = chunks
	r.view.Run = run
	r.view.Runs = r.cfg.Runs
	r.view.Phase = "settle"
	r.mu.Unlock()
}

func (r *Runner) setPhase(phase string) {
	r.mu.Lock()
	r.view.Phase = phase
	r.mu.Unlock()
}

// Run executes every (chunk count, spec, mount) combination. All mounts of
// the same content must hash identically; a mismatch fails the whole run,
// because it means some mount returned corrupt data and every timing is
// suspect.
func (r *Runner) Run(ctx context.Context, specs []string) (record.Table, error) {
	mountpoint := r.cfg.Mountpoint
	if mountpoint == "" {
		mountpoint = filepath.Join(r.cfg.ImageDir, "mountpoint")
	}
	if err := os.MkdirAll(mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("create mountpoint: %w", err)
	}

	var records record.Table
	for _, nChunks := range r.cfg.Chunks {
		hashes := make(map[uint64]struct{})
		for _, spec := range specs {
			image := filepath.Join(r.cfg.ImageDir, spec+".squashfs")
			for _, command := range r.cfg.MountCmds {
				rec, hash, err := r.trial(ctx, spec, r.newMount(command), image, mountpoint, nChunks)
				if err != nil {
					return nil, err
				}
				hashes[hash] = struct{}{}
				records = append(records, rec)
			}
		}
		if len(hashes) > 1 {
			return nil, fmt.Errorf("content hash differs across mounts with %d chunks", nChunks)
		}
	}
	return records, nil
}

func (r *Runner) trial(ctx context.Context, spec string, mount Mount, image, mountpoint string, nChunks int) (record.Record, uint64, error) {
	info, err := os.Stat(image)
	if err != nil {
		return record.Record{}, 0, fmt.Errorf("stat image: %w", err)
	}
	settle := time.Duration(r.cfg.SettleSecs) * time.Second
	durations := make([]float64, 0, r.cfg.Runs)
	hashes := make(map[uint64]struct{})

	for run := 1; run <= r.cfg.Runs; run++ {
		r.setTrial(spec, mount.Name(), nChunks, run)
		if err := r.dropCaches(); err != nil {
			r.log.Warn("failed to drop caches, run with sudo; continuing", "err", err)
		}
		r.sleep(settle)

		if err := mount.Mount(image, mountpoint); err != nil {
			return record.Record{}, 0, err
		}
		r.sleep(settle)

		duration, hash, err := r.timedRead(ctx, mountpoint, nChunks)
		if err != nil {
			_ = mount.Unmount()
			return record.Record{}, 0, err
		}
		if err := mount.Unmount(); err != nil {
			return record.Record{}, 0, err
		}
		durations = append(durations, duration)
		hashes[hash] = struct{}{}
	}

	if len(hashes) != 1 {
		return record.Record{}, 0, fmt.Errorf("%s/%s: content hash varies across runs", spec, mount.Name())
	}
	var hash uint64
	for h := range hashes {
		hash = h
	}

	duration := stats.Collect(durations)
	r.log.Info("trial complete",
		"spec", spec,
		"mount", mount.Name(),
		"n_chunks", nChunks,
		"duration_ms", duration.String(),
		"speed_mb_s", fmt.Sprintf("%.1f", float64(info.Size())/1e6/(duration.Mean/1e3)),
	)
	return record.Record{
		MountName:  mount.Name(),
		NChunks:    nChunks,
		DurationMS: duration,
		Filesize:   info.Size(),
		Spec:       spec,
	}, hash, nil
}

// timedRead measures one full read of the mounted tree, then hashes the
// content in a second pass so verification IO never pollutes the timing.
func (r *Runner) timedRead(ctx context.Context, mountpoint string, nChunks int) (float64, uint64, error) {
	files, err := listFiles(mountpoint)
	if err != nil {
		return 0, 0, err
	}
	total, err := treeTotalSize(files)
	if err != nil {
		return 0, 0, err
	}
	r.meter.Start(total)
	r.setPhase("read")

	start := time.Now()
	if _, err := readTree(ctx, mountpoint, nChunks, false, r.meter); err != nil {
		return 0, 0, err
	}
	duration := float64(time.Since(start).Milliseconds())

	r.setPhase("verify")
	hash, err := readTree(ctx, mountpoint, nChunks, true, nil)
	if err != nil {
		return 0, 0, err
	}
	return duration, hash, nil
}

// dropPageCaches asks the kernel to evict clean caches so each trial reads
// cold. Needs root; callers treat failure as a warning.
func dropPageCaches() error {
	return os.WriteFile("/proc/sys/vm/drop_caches", []byte("3"), 0o200)
}
