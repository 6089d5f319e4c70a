package connio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/netwire-go/netwire/internal/wire"
)

// DataDecoder is the read half of a connection: a dedicated goroutine
// issuing blocking reads (bounded by the keep-alive deadline) and feeding
// each chunk to the connection's wire.FrameDecoder, carrying forward
// whatever trailing bytes the decoder reports as residual across read
// calls.
//
// Unlike DataEncoder's writes, the read loop is not routed through the
// shared Executor: it spends most of its life blocked in Conn.Read, and
// tying up one of a fixed threadsNumber workers per idle connection would
// starve the pool under concurrent load. One goroutine per connection
// keeps that blocking wait off the pool entirely, cheap enough that the
// pool only needs to bound CPU-bound dispatch work, not the number of open
// sockets.
type DataDecoder struct {
	conn     *ConnectionContext
	consumer wire.FrameConsumer
	onFatal  func(error)
	readSize int
}

// NewDataDecoder builds a DataDecoder delivering parsed frames to consumer
// and reporting unrecoverable decode/read errors via onFatal.
func NewDataDecoder(conn *ConnectionContext, consumer wire.FrameConsumer, onFatal func(error)) *DataDecoder {
	return &DataDecoder{
		conn:     conn,
		consumer: consumer,
		onFatal:  onFatal,
		readSize: int(wire.Large),
	}
}

// Start launches the read loop in its own goroutine and returns
// immediately.
func (d *DataDecoder) Start() {
	go d.loop()
}

func (d *DataDecoder) loop() {
	for {
		if d.conn.Closed() {
			return
		}

		if d.conn.KeepAliveTimeout > 0 {
			_ = d.conn.Conn.SetReadDeadline(time.Now().Add(d.conn.KeepAliveTimeout))
		}

		buf, err := d.conn.Pool.Acquire(context.Background(), d.readSize)
		if err != nil {
			d.fail(fmt.Errorf("connio: read: acquire buffer: %w", err))
			return
		}

		n, rerr := d.conn.Conn.Read(buf.Raw())
		if n > 0 {
			data := make([]byte, 0, len(d.conn.residual)+n)
			data = append(data, d.conn.residual...)
			data = append(data, buf.Raw()[:n]...)
			d.conn.Pool.Release(buf)

			rest, derr := d.conn.Decoder.Step(data, d.consumer)
			if derr != nil {
				d.fail(derr)
				return
			}
			d.conn.residual = rest
		} else {
			d.conn.Pool.Release(buf)
		}

		if rerr != nil {
			d.fail(classifyReadError(rerr))
			return
		}
	}
}

func (d *DataDecoder) fail(err error) {
	d.conn.Close()
	if d.onFatal != nil {
		d.onFatal(err)
	}
}

func classifyReadError(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("connio: read: %w", wire.ErrPeerClosed)
	}
	if errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("connio: read: %w", wire.ErrChannelClosed)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("connio: read: %w", wire.ErrTimeout)
	}
	return fmt.Errorf("connio: read: %w", err)
}
