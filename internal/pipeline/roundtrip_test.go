package pipeline

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/netwire-go/netwire/internal/connio"
	"github.com/netwire-go/netwire/internal/wire"
)

func TestInboundOutboundRoundtrip(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	pool := wire.NewBufferPool(4)
	executor := connio.NewExecutor(2, 8)
	defer executor.Stop()

	writerCtx := connio.NewConnectionContext(clientConn, pool, 1<<20, 0)
	encoder := wire.NewFrameEncoder(pool, connio.NewDataEncoder(writerCtx, executor))
	out := NewOutboundPipeline(encoder)

	readerCtx := connio.NewConnectionContext(serverConn, pool, 1<<20, 0)
	in := NewInboundPipeline(executor, func(marker byte, err error) {
		t.Errorf("unexpected protocol error on marker 0x%02x: %v", marker, err)
	})

	received := make(chan wire.Value, 1)
	in.SetReceiveCallback(ReceiveCallbackFunc(func(v wire.Value) {
		received <- v
	}))

	decoder := connio.NewDataDecoder(readerCtx, in.Consumer(), func(err error) {})
	decoder.Start()

	req := out.Send(context.Background(), wire.String("round-trip via pipeline"))
	if err := req.Wait(); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case v := <-received:
		if v.Kind != wire.KindString || v.Str != "round-trip via pipeline" {
			t.Fatalf("unexpected value: %+v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivered value")
	}
}

func TestSetReceiveCallbackSwapsMidStream(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	pool := wire.NewBufferPool(4)
	executor := connio.NewExecutor(2, 8)
	defer executor.Stop()

	writerCtx := connio.NewConnectionContext(clientConn, pool, 1<<20, 0)
	encoder := wire.NewFrameEncoder(pool, connio.NewDataEncoder(writerCtx, executor))
	out := NewOutboundPipeline(encoder)

	readerCtx := connio.NewConnectionContext(serverConn, pool, 1<<20, 0)
	in := NewInboundPipeline(executor, nil)

	first := make(chan wire.Value, 1)
	in.SetReceiveCallback(ReceiveCallbackFunc(func(v wire.Value) { first <- v }))

	decoder := connio.NewDataDecoder(readerCtx, in.Consumer(), func(err error) {})
	decoder.Start()

	if err := out.Send(context.Background(), wire.Int32(1)).Wait(); err != nil {
		t.Fatalf("Send: %v", err)
	}
	<-first

	second := make(chan wire.Value, 1)
	in.SetReceiveCallback(ReceiveCallbackFunc(func(v wire.Value) { second <- v }))

	if err := out.Send(context.Background(), wire.Int32(2)).Wait(); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case v := <-second:
		if v.I32 != 2 {
			t.Fatalf("got %d, want 2", v.I32)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value on swapped-in callback")
	}
}
