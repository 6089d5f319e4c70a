package pipeline

import (
	"github.com/netwire-go/netwire/internal/connio"
	"github.com/netwire-go/netwire/internal/wire"
)

// InboundPipeline turns a connection's decoded frames into calls on a
// ReceiveCallback that can be swapped at any time — e.g. a protocol
// handshake handler replacing itself with the application handler once the
// handshake completes, without missing or duplicating a value.
type InboundPipeline struct {
	callback   atomicCallback
	dispatcher *wire.TypeDispatcher
	executor   *connio.Executor
	onProtoErr func(marker byte, err error)
}

// NewInboundPipeline builds an InboundPipeline whose dispatch runs on
// executor — so a slow ReceiveCallback never blocks the connection's read
// loop — and whose per-frame parse failures (ProtocolViolation /
// ProtocolIncomplete) are reported through onProtoErr rather than closing
// the connection.
func NewInboundPipeline(executor *connio.Executor, onProtoErr func(marker byte, err error)) *InboundPipeline {
	p := &InboundPipeline{executor: executor, onProtoErr: onProtoErr}
	p.dispatcher = wire.NewTypeDispatcher(receiverFunc(p.deliver), p.protocolError)
	return p
}

// SetReceiveCallback installs cb as the handler for every subsequently
// decoded value. Safe to call from any goroutine, including from within a
// running ReceiveCallback.
func (p *InboundPipeline) SetReceiveCallback(cb ReceiveCallback) {
	p.callback.store(cb)
}

// Consumer returns the wire.FrameConsumer a connio.DataDecoder should feed
// decoded frames to.
func (p *InboundPipeline) Consumer() wire.FrameConsumer {
	return p.dispatcher
}

func (p *InboundPipeline) deliver(v wire.Value) {
	submitted := p.executor.Submit(func() {
		if cb := p.callback.load(); cb != nil {
			cb.OnValue(v)
		}
	})
	if !submitted {
		// Executor stopped (server shutting down); dropping a value
		// here is correct, not a bug — there is no handler left to run.
		return
	}
}

func (p *InboundPipeline) protocolError(marker byte, err error) {
	if p.onProtoErr != nil {
		p.onProtoErr(marker, err)
	}
}

type receiverFunc func(wire.Value)

func (f receiverFunc) Receive(v wire.Value) { f(v) }
