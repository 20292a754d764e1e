package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// TrialView is everything the live display needs about the current trial.
type TrialView struct {
	Image  string // image spec, e.g. "zstd"
	Mount  string
	Chunks int
	Run    int // 1-based
	Runs   int
	Phase  string // "settle", "read", "verify"
	Stats  Stats
}

const (
	colorReset = "\033[0m"
	colorCyan  = "\033[36m"
)

func colorize(s string, color string, enabled bool) string {
	if !enabled || color == "" {
		return s
	}
	return color + s + colorReset
}

func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func formatTrialLine(v TrialView) string {
	return fmt.Sprintf("spec=%s mount=%s chunks=%d run=%d/%d %s %.1f/%.1f MB %.1f MB/s",
		v.Image,
		v.Mount,
		v.Chunks,
		v.Run,
		v.Runs,
		v.Phase,
		float64(v.Stats.BytesDone)/1e6,
		float64(v.Stats.Total)/1e6,
		v.Stats.MBps(),
	)
}

// RenderTrial displays live trial progress until the returned stop function
// is called. On a TTY it drives the bubbletea ticker model; otherwise it
// emits one plain line per second.
func RenderTrial(ctx context.Context, w io.Writer, view func() TrialView) func() {
	if IsTTY(w) {
		return renderTrialTea(ctx, w, view)
	}
	ticker := time.NewTicker(1 * time.Second)
	stop := make(chan struct{})
	renderOnce := func() {
		fmt.Fprintf(w, "%s\n", formatTrialLine(view()))
	}
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				renderOnce()
			}
		}
	}()
	return func() {
		close(stop)
		renderOnce()
	}
}
