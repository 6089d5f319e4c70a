package connio

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/netwire-go/netwire/internal/wire"
)

// ConnectionContext is the per-connection state the read and write loops
// share: the socket, its buffer pool, and its decoder. The
// atomically-replaceable receive callback lives in pipeline.InboundPipeline
// instead (swapping the handler mid-connection without racing an in-flight
// dispatch is that package's concern, not connio's).
type ConnectionContext struct {
	Conn    net.Conn
	Pool    *wire.BufferPool
	Decoder *wire.FrameDecoder

	KeepAliveTimeout time.Duration

	residual []byte

	closed atomic.Bool
}

// NewConnectionContext wraps conn with a decoder bounded by maxFrameLength
// and a keep-alive read deadline refreshed after every successful read.
func NewConnectionContext(conn net.Conn, pool *wire.BufferPool, maxFrameLength int32, keepAliveTimeout time.Duration) *ConnectionContext {
	return &ConnectionContext{
		Conn:             conn,
		Pool:             pool,
		Decoder:          wire.NewFrameDecoder(maxFrameLength),
		KeepAliveTimeout: keepAliveTimeout,
	}
}

// Closed reports whether Close has already run.
func (c *ConnectionContext) Closed() bool {
	return c.closed.Load()
}

// Close closes the underlying connection exactly once.
func (c *ConnectionContext) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.Conn.Close()
}
