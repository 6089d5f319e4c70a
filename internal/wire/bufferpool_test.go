package wire

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBufferPoolAcquireReleaseClassSelection(t *testing.T) {
	tests := []struct {
		name string
		size int
		want SizeClass
	}{
		{"zero", 0, Small},
		{"small boundary", 256, Small},
		{"just over small", 257, Medium},
		{"medium boundary", 4096, Medium},
		{"just over medium", 4097, Large},
		{"large boundary", 65536, Large},
	}

	pool := NewBufferPool(2)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := pool.Acquire(context.Background(), tt.size)
			if err != nil {
				t.Fatalf("Acquire: %v", err)
			}
			if buf.Class() != tt.want {
				t.Errorf("class: got %d, want %d", buf.Class(), tt.want)
			}
			if err := pool.Release(buf); err != nil {
				t.Fatalf("Release: %v", err)
			}
		})
	}
}

func TestBufferPoolAcquireTooLarge(t *testing.T) {
	pool := NewBufferPool(1)
	_, err := pool.Acquire(context.Background(), int(Large)+1)
	if !errors.Is(err, ErrBufferTooLarge) {
		t.Fatalf("got %v, want ErrBufferTooLarge", err)
	}
}

func TestBufferPoolAcquireBlocksUntilContextDone(t *testing.T) {
	pool := NewBufferPool(1)
	buf, err := pool.Acquire(context.Background(), 10)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx, 10)
	if !errors.Is(err, ErrResourceInterrupted) {
		t.Fatalf("got %v, want ErrResourceInterrupted", err)
	}

	if err := pool.Release(buf); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestBufferPoolReleaseInvalid(t *testing.T) {
	pool := NewBufferPool(1)
	if err := pool.Release(nil); !errors.Is(err, ErrInvalidBuffer) {
		t.Fatalf("got %v, want ErrInvalidBuffer", err)
	}

	foreign := newBuffer(Small)
	foreign.buf = make([]byte, 17) // not a real class capacity
	if err := pool.Release(foreign); !errors.Is(err, ErrInvalidBuffer) {
		t.Fatalf("got %v, want ErrInvalidBuffer", err)
	}
}

func TestBufferPoolStats(t *testing.T) {
	pool := NewBufferPool(3)
	stats := pool.Stats()
	if stats.PerClass != 3 || stats.SmallFree != 3 || stats.MediumFree != 3 || stats.LargeFree != 3 {
		t.Fatalf("unexpected initial stats: %+v", stats)
	}

	buf, err := pool.Acquire(context.Background(), 10)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got := pool.Stats().SmallFree; got != 2 {
		t.Errorf("SmallFree after acquire: got %d, want 2", got)
	}

	if err := pool.Release(buf); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got := pool.Stats().SmallFree; got != 3 {
		t.Errorf("SmallFree after release: got %d, want 3", got)
	}
}
