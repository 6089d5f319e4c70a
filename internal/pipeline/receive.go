// Package pipeline provides the Inbound and Outbound sides of a connection:
// Inbound turns decoded wire.Value traffic into callbacks on an
// atomically-swappable handler, Outbound turns application Values into
// completion-tracked sends through a wire.FrameEncoder.
package pipeline

import (
	"sync/atomic"

	"github.com/netwire-go/netwire/internal/wire"
)

// ReceiveCallback is notified of every value an InboundPipeline decodes.
type ReceiveCallback interface {
	OnValue(v wire.Value)
}

// ReceiveCallbackFunc adapts a plain function to ReceiveCallback.
type ReceiveCallbackFunc func(wire.Value)

// OnValue implements ReceiveCallback.
func (f ReceiveCallbackFunc) OnValue(v wire.Value) { f(v) }

// atomicCallback is an atomic cell in place of a shared-mutable callback
// field: SetReceiveCallback replaces the active handler without racing an
// in-flight OnValue dispatch.
type atomicCallback struct {
	cell atomic.Pointer[ReceiveCallback]
}

func (a *atomicCallback) store(cb ReceiveCallback) {
	a.cell.Store(&cb)
}

func (a *atomicCallback) load() ReceiveCallback {
	p := a.cell.Load()
	if p == nil {
		return nil
	}
	return *p
}
