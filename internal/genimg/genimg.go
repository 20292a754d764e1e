// Package genimg builds the squashfs test images the benchmark mounts: a
// deterministic random file tree packed once per compression spec.
package genimg

import (
	"bufio"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mountbench/mountbench/internal/config"
)

// ImageSpec names one benchmark configuration and the mksquashfs options
// that build it.
type ImageSpec struct {
	Name string
	Args []string
}

// Specs are the image configurations, one squashfs per entry. The names
// double as the record "spec" column.
var Specs = []ImageSpec{
	{Name: "nocomp", Args: []string{"-noI", "-noId", "-noD", "-noF", "-noX"}},
	{Name: "gzip", Args: []string{"-comp", "gzip", "-Xcompression-level", "1"}},
	{Name: "zstd", Args: []string{"-comp", "zstd", "-Xcompression-level", "1"}},
}

// SpecNames returns the spec names in declaration order.
func SpecNames() []string {
	names := make([]string, 0, len(Specs))
	for _, s := range Specs {
		names = append(names, s.Name)
	}
	return names
}

// ImagePath returns the image file for a spec under dir.
func ImagePath(dir, spec string) string {
	return filepath.Join(dir, spec+".squashfs")
}

// Generator writes the content tree and packs it into one image per spec.
// The mksquashfs hook exists so tests can run without the binary.
type Generator struct {
	cfg        config.GenConfig
	log        *slog.Logger
	mksquashfs func(contents, image string, args []string) error
}

func New(cfg config.GenConfig, log *slog.Logger) *Generator {
	return &Generator{cfg: cfg, log: log, mksquashfs: runMksquashfs}
}

// Run generates any missing images. Existing images are kept as-is so
// repeated invocations are cheap; the content tree is removed afterwards.
func (g *Generator) Run() error {
	missing := false
	for _, spec := range Specs {
		if _, err := os.Stat(ImagePath(g.cfg.Dir, spec.Name)); err != nil {
			missing = true
			break
		}
	}
	if !missing {
		g.log.Info("test images already generated", "dir", g.cfg.Dir)
		return nil
	}

	contents := filepath.Join(g.cfg.Dir, "contents")
	if err := os.RemoveAll(contents); err != nil {
		return fmt.Errorf("clear content tree: %w", err)
	}
	g.log.Info("creating random files", "dir", contents, "file_size", g.cfg.FileSize)
	rng := rand.New(rand.NewSource(g.cfg.Seed))
	if err := writeRandomTree(contents, g.cfg.FilesPerFolder, g.cfg.FileSize, rng); err != nil {
		return err
	}

	for _, spec := range Specs {
		image := ImagePath(g.cfg.Dir, spec.Name)
		if _, err := os.Stat(image); err == nil {
			continue
		}
		g.log.Info("creating test squashfs", "spec", spec.Name, "image", image)
		if err := g.mksquashfs(contents, image, mksquashfsArgs(spec.Args)); err != nil {
			return fmt.Errorf("mksquashfs %s: %w", spec.Name, err)
		}
	}

	g.log.Info("cleaning up random files")
	return os.RemoveAll(contents)
}

// writeRandomTree fills dir with filesPerFolder random files plus one
// subfolder of the same shape, all drawn from rng so the tree is
// reproducible for a given seed.
func writeRandomTree(dir string, filesPerFolder, fileSize int, rng *rand.Rand) error {
	if err := randomFiles(filesPerFolder, dir, fileSize, rng); err != nil {
		return err
	}
	sub := filepath.Join(dir, "0")
	return randomFiles(filesPerFolder, sub, fileSize, rng)
}

func randomFiles(n int, dir string, size int, rng *rand.Rand) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("file-%d.random", i))
		if err := randomFile(path, size, rng); err != nil {
			return err
		}
	}
	return nil
}

func randomFile(path string, size int, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	buf := make([]byte, 64*1024)
	remaining := size
	for remaining > 0 {
		chunk := buf
		if remaining < len(chunk) {
			chunk = chunk[:remaining]
		}
		rng.Read(chunk)
		if _, err := w.Write(chunk); err != nil {
			f.Close()
			return err
		}
		remaining -= len(chunk)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// mksquashfsArgs prepends the reproducibility flags so image bytes depend
// only on the tree contents and the spec options, not on build time.
func mksquashfsArgs(spec []string) []string {
	return append([]string{"-mkfs-time", "0", "-reproducible"}, spec...)
}

func runMksquashfs(contents, image string, args []string) error {
	cmd := exec.Command("mksquashfs", append([]string{contents, image}, args...)...)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
