// Package transport supplies netwire's two ways of getting bytes onto a
// net.Conn-shaped wire: a plain TCP listener, and a gorilla/websocket
// adapter for environments that need to tunnel the same framing protocol
// through an HTTP upgrade. Accepting a connection and handing it to
// internal/connio is the one job these types do; everything protocol-level
// happens above them.
package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
)

// Listener accepts TCP connections and hands each to a handler.
type Listener struct {
	address string
	logger  *slog.Logger

	ln net.Listener
}

// NewListener builds a Listener bound to address (not yet listening).
func NewListener(address string, logger *slog.Logger) *Listener {
	return &Listener{address: address, logger: logger}
}

// Start opens the socket and runs accept() in a loop, invoking handle for
// every accepted connection on its own goroutine. It blocks until Stop
// closes the listener, at which point it returns nil (a closed listener is
// the expected way to end the loop, not an error).
func (l *Listener) Start(handle func(net.Conn)) error {
	ln, err := net.Listen("tcp", l.address)
	if err != nil {
		return fmt.Errorf("transport: listen on %s: %w", l.address, err)
	}
	l.ln = ln
	l.logger.Info("tcp listener started", "address", l.address)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.logger.Warn("accept failed", "error", err)
			continue
		}
		go handle(conn)
	}
}

// Stop closes the listening socket, ending any in-progress Start call.
// Already-accepted connections are not affected.
func (l *Listener) Stop() error {
	if l.ln == nil {
		return nil
	}
	return l.ln.Close()
}
