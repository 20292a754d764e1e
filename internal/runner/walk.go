package runner

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mountbench/mountbench/internal/bufpool"
	"github.com/mountbench/mountbench/internal/progress"
)

const readBufSize = 128 * 1024

var readBuffers = bufpool.New(readBufSize)

// listFiles returns every regular file under root, sorted by path so chunk
// assignment is stable between passes.
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// chunkFiles splits files into contiguous chunks of ceil(len/n) entries,
// yielding at most n chunks.
func chunkFiles(files []string, n int) [][]string {
	if len(files) == 0 || n < 1 {
		return nil
	}
	size := int(math.Ceil(float64(len(files)) / float64(n)))
	chunks := make([][]string, 0, n)
	for start := 0; start < len(files); start += size {
		end := start + size
		if end > len(files) {
			end = len(files)
		}
		chunks = append(chunks, files[start:end])
	}
	return chunks
}

// treeTotalSize sums the sizes of the given files.
func treeTotalSize(files []string) (int64, error) {
	var total int64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// readTree reads every file under root with nChunks parallel workers.
// With hash set, each worker folds its files into an FNV-1a digest and the
// per-chunk digests are combined in chunk order into the returned content
// hash; otherwise the bytes are discarded and the hash is zero. Bytes read
// are reported to meter when it is non-nil.
func readTree(ctx context.Context, root string, nChunks int, hash bool, meter *progress.Meter) (uint64, error) {
	files, err := listFiles(root)
	if err != nil {
		return 0, err
	}
	chunks := chunkFiles(files, nChunks)
	digests := make([]uint64, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			digest, err := readChunk(ctx, chunk, hash, meter)
			if err != nil {
				return err
			}
			digests[i] = digest
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if !hash {
		return 0, nil
	}
	combined := fnv.New64a()
	for _, d := range digests {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], d)
		_, _ = combined.Write(buf[:])
	}
	return combined.Sum64(), nil
}

func readChunk(ctx context.Context, files []string, hash bool, meter *progress.Meter) (uint64, error) {
	hasher := fnv.New64a()
	buf := readBuffers.Get()
	defer readBuffers.Put(buf)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		var dst io.Writer = io.Discard
		if hash {
			dst = hasher
		}
		_, err = io.CopyBuffer(&countingWriter{next: dst, meter: meter}, f, buf)
		f.Close()
		if err != nil {
			return 0, err
		}
	}
	return hasher.Sum64(), nil
}

// countingWriter reports written bytes to a meter. It deliberately does not
// implement io.ReaderFrom so io.CopyBuffer keeps using the pooled buffer.
type countingWriter struct {
	next  io.Writer
	meter *progress.Meter
}

func (w *countingWriter) Write(p []byte) (int, error) {
	n, err := w.next.Write(p)
	if n > 0 && w.meter != nil {
		w.meter.Add(n)
	}
	return n, err
}
