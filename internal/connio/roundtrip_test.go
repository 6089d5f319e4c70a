package connio

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/netwire-go/netwire/internal/wire"
)

type recordingConsumer struct {
	values chan wire.Value
}

func (c *recordingConsumer) Consume(marker byte, payload []byte) {
	v, err := decodeForTest(marker, payload)
	if err != nil {
		return
	}
	c.values <- v
}

// decodeForTest mirrors just enough of wire's marker handling to avoid
// reaching into wire's unexported parser from this package's tests; it only
// needs to support the Int32 case exercised below.
func decodeForTest(marker byte, payload []byte) (wire.Value, error) {
	if marker == wire.TypeInt32 && len(payload) == 4 {
		n := int32(payload[0])<<24 | int32(payload[1])<<16 | int32(payload[2])<<8 | int32(payload[3])
		return wire.Int32(n), nil
	}
	return wire.Value{}, errUnsupported
}

var errUnsupported = &unsupportedMarkerError{}

type unsupportedMarkerError struct{}

func (*unsupportedMarkerError) Error() string { return "unsupported marker in test" }

func TestDataEncoderDataDecoderRoundtrip(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	pool := wire.NewBufferPool(4)
	executor := NewExecutor(2, 8)
	defer executor.Stop()

	writerCtx := NewConnectionContext(clientConn, pool, 1<<20, 0)
	encoder := wire.NewFrameEncoder(pool, NewDataEncoder(writerCtx, executor))

	readerCtx := NewConnectionContext(serverConn, pool, 1<<20, 0)
	consumer := &recordingConsumer{values: make(chan wire.Value, 1)}
	decoder := NewDataDecoder(readerCtx, consumer, func(err error) {})
	decoder.Start()

	done := make(chan error, 1)
	encoder.SendInt32(context.Background(), 4242, func() { done <- nil }, func(err error) { done <- err })
	if err := <-done; err != nil {
		t.Fatalf("SendInt32: %v", err)
	}

	select {
	case v := <-consumer.values:
		if v.I32 != 4242 {
			t.Fatalf("got %d, want 4242", v.I32)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for decoded value")
	}
}
