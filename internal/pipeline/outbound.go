package pipeline

import (
	"context"

	"github.com/netwire-go/netwire/internal/wire"
)

// Request tracks one outbound send: callers block on Wait (or poll Done)
// instead of juggling raw onComplete/onException callbacks directly.
type Request struct {
	done chan struct{}
	err  error
}

func newRequest() *Request {
	return &Request{done: make(chan struct{})}
}

func (r *Request) complete(err error) {
	r.err = err
	close(r.done)
}

// Done returns a channel closed once the send finishes, successfully or
// not.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the send completes and returns its error, if any.
func (r *Request) Wait() error {
	<-r.done
	return r.err
}

// OutboundPipeline is the application-facing wrapper around a
// wire.FrameEncoder: Send returns a Request instead of requiring the
// caller to supply completion callbacks directly.
//
// Sends are not serialized: each frame is written by its own Executor
// task, so frames from concurrent Send calls on one connection may reach
// the wire in any order. Frame order is kept only for a single sender that
// waits for each Request before the next Send.
type OutboundPipeline struct {
	encoder *wire.FrameEncoder
}

// NewOutboundPipeline builds an OutboundPipeline writing through encoder.
func NewOutboundPipeline(encoder *wire.FrameEncoder) *OutboundPipeline {
	return &OutboundPipeline{encoder: encoder}
}

// Send encodes and writes v, returning a Request that resolves once the
// frame has been fully handed to the transport (or failed to be).
func (p *OutboundPipeline) Send(ctx context.Context, v wire.Value) *Request {
	req := newRequest()
	p.encoder.SendValue(ctx, v,
		func() { req.complete(nil) },
		func(err error) { req.complete(err) },
	)
	return req
}
