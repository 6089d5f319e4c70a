package diag

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestErrorSinkFlushesImmediatelyWhenIntervalIsZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "error.log")

	sink, err := NewErrorSink(path, 16, 0, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatalf("NewErrorSink: %v", err)
	}
	defer sink.Close()

	sink.Report("boom")

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if data, _ := os.ReadFile(path); len(data) > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("entry was not flushed to disk within the deadline")
}

func TestErrorSinkBatchesUntilFlushInterval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "error.log")

	sink, err := NewErrorSink(path, 16, time.Hour, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatalf("NewErrorSink: %v", err)
	}

	sink.Report("buffered entry")
	time.Sleep(50 * time.Millisecond)

	if data, _ := os.ReadFile(path); len(data) != 0 {
		t.Fatalf("expected no data on disk before flush interval or Close, got %q", data)
	}

	sink.Close() // Close flushes whatever was queued, regardless of interval.

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected buffered entry to be flushed on Close")
	}
}

// TestErrorSinkReportDropsWhenQueueFull drives Report/Counts directly
// against a queue with no draining worker attached, so the full-queue drop
// path is deterministic instead of racing a background goroutine.
func TestErrorSinkReportDropsWhenQueueFull(t *testing.T) {
	s := &ErrorSink{entries: make(chan string, 1)}

	s.Report("fills the one slot")
	s.Report("dropped: queue full")
	s.Report("also dropped")

	logged, dropped := s.Counts()
	if logged != 0 {
		t.Fatalf("logged: got %d, want 0 (no worker draining the queue)", logged)
	}
	if dropped != 2 {
		t.Fatalf("dropped: got %d, want 2", dropped)
	}
}
