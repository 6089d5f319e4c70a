package connio

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/netwire-go/netwire/internal/wire"
)

// DataEncoder implements wire.WriteEngine: it drains a flipped buffer onto
// a ConnectionContext's socket on the shared Executor, so the goroutine
// that produced the frame does not wait on the socket write itself. Write
// does wait while the Executor's task queue is full.
type DataEncoder struct {
	conn     *ConnectionContext
	executor *Executor
}

// NewDataEncoder builds a DataEncoder writing to conn's socket via
// executor's worker pool.
func NewDataEncoder(conn *ConnectionContext, executor *Executor) *DataEncoder {
	return &DataEncoder{conn: conn, executor: executor}
}

// Write implements wire.WriteEngine. buf must already be flipped
// (wire.Buffer.Flip) by the caller.
func (e *DataEncoder) Write(buf *wire.Buffer, onComplete func(), onException func(error)) {
	submitted := e.executor.Submit(func() {
		err := e.drain(buf)
		e.conn.Pool.Release(buf)
		if err != nil {
			e.conn.Close()
			onException(err)
			return
		}
		onComplete()
	})
	if !submitted {
		e.conn.Pool.Release(buf)
		onException(fmt.Errorf("connio: write: %w", wire.ErrAsyncClose))
	}
}

func (e *DataEncoder) drain(buf *wire.Buffer) error {
	for buf.Remaining() > 0 {
		if e.conn.Closed() {
			return fmt.Errorf("connio: write: %w", wire.ErrChannelClosed)
		}
		n, err := e.conn.Conn.Write(buf.Readable())
		if n > 0 {
			buf.Advance(n)
		}
		if err != nil {
			return classifyWriteError(err)
		}
	}
	return nil
}

func classifyWriteError(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("connio: write: %w", wire.ErrChannelClosed)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("connio: write: %w", wire.ErrTimeout)
	}
	if errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("connio: write: %w", wire.ErrPeerClosed)
	}
	// A real TCP socket surfaces a reset or broken pipe from the peer as a
	// *net.OpError wrapping the syscall errno, not io.ErrClosedPipe (that
	// sentinel belongs to os.Pipe/net.Pipe).
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return fmt.Errorf("connio: write: %w", wire.ErrPeerClosed)
	}
	return fmt.Errorf("connio: write: %w", err)
}

// HeartbeatInterval is how often a keep-alive connection's write side
// sends a Heartbeat frame; the sender ticks at this interval whether or not
// other frames were written in between. The read side's timeout (ConnectionContext.KeepAliveTimeout) should be set
// comfortably larger than this so a single dropped heartbeat isn't fatal.
func HeartbeatInterval(keepAliveTimeout time.Duration) time.Duration {
	return keepAliveTimeout / 3
}
