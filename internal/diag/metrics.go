// Package diag collects and serializes the operational picture of a
// running netwire process: buffer pool occupancy, worker queue depth, and
// a best-effort async sink for errors that happen off the request path.
// The `netwire stats` CLI command consumes a msgpack-encoded Snapshot —
// a compact binary snapshot suits a point-in-time CLI dump better than a
// scrape-oriented text exposition format would.
package diag

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/netwire-go/netwire/internal/connio"
	"github.com/netwire-go/netwire/internal/wire"
)

// Snapshot is the point-in-time operational state reported by the stats
// command.
type Snapshot struct {
	TakenAt time.Time `msgpack:"taken_at"`

	BufferPool wire.Stats `msgpack:"buffer_pool"`

	ExecutorQueueDepth int `msgpack:"executor_queue_depth"`
	ExecutorQueueCap   int `msgpack:"executor_queue_cap"`

	ErrorsLogged  uint64 `msgpack:"errors_logged"`
	ErrorsDropped uint64 `msgpack:"errors_dropped"`
}

// Collector gathers a Snapshot from the pieces of a running server that
// carry their own counters.
type Collector struct {
	pool     *wire.BufferPool
	executor *connio.Executor
	sink     *ErrorSink
	now      func() time.Time
}

// NewCollector builds a Collector. now lets tests and callers that already
// have a canonical clock (e.g. one synchronized across a cluster) supply
// it instead of relying on wall-clock time at snapshot time.
func NewCollector(pool *wire.BufferPool, executor *connio.Executor, sink *ErrorSink, now func() time.Time) *Collector {
	if now == nil {
		now = time.Now
	}
	return &Collector{pool: pool, executor: executor, sink: sink, now: now}
}

// Snapshot gathers current stats.
func (c *Collector) Snapshot() Snapshot {
	s := Snapshot{TakenAt: c.now()}
	if c.pool != nil {
		s.BufferPool = c.pool.Stats()
	}
	if c.executor != nil {
		st := c.executor.Statistics()
		s.ExecutorQueueDepth = st.QueueDepth
		s.ExecutorQueueCap = st.QueueCap
	}
	if c.sink != nil {
		s.ErrorsLogged, s.ErrorsDropped = c.sink.Counts()
	}
	return s
}

// Encode serializes snap as msgpack, the format the `netwire stats`
// command reads back and prints as text.
func Encode(snap Snapshot) ([]byte, error) {
	return msgpack.Marshal(snap)
}

// Decode parses a msgpack-encoded Snapshot, the inverse of Encode.
func Decode(data []byte) (Snapshot, error) {
	var snap Snapshot
	err := msgpack.Unmarshal(data, &snap)
	return snap, err
}
