package bufpool

import (
	"testing"
)

func TestPool_GetPut(t *testing.T) {
	bufSize := 4096
	pool := New(bufSize)

	buf1 := pool.Get()
	if len(buf1) != bufSize {
		t.Errorf("expected buffer length %d, got %d", bufSize, len(buf1))
	}
	pool.Put(buf1)

	buf2 := pool.Get()
	if len(buf2) != bufSize {
		t.Errorf("expected buffer length %d, got %d", bufSize, len(buf2))
	}
	if pool.BufSize() != bufSize {
		t.Errorf("expected BufSize %d, got %d", bufSize, pool.BufSize())
	}
}

func TestPool_TooSmallBuffer(t *testing.T) {
	bufSize := 4096
	pool := New(bufSize)

	// An undersized buffer put back must not leak out of a later Get.
	pool.Put(make([]byte, 1024))

	buf := pool.Get()
	if len(buf) != bufSize {
		t.Errorf("expected buffer length %d, got %d", bufSize, len(buf))
	}
}

func TestPool_PanicOnBadSize(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for non-positive bufSize")
		}
	}()
	New(0)
}
