package transport

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSConn adapts a *websocket.Conn into the net.Conn shape internal/connio
// expects, so the exact same framing machinery that runs over raw TCP can
// run over a WebSocket upgrade unmodified. Each Write becomes one binary
// WebSocket message; Read reassembles the byte stream by buffering
// whatever is left over from the last message it pulled off the wire.
//
// netwire treats an upgraded WebSocket exactly like an accepted TCP socket.
type WSConn struct {
	conn *websocket.Conn

	pending []byte
}

// NewWSConn wraps an already-upgraded WebSocket connection.
func NewWSConn(conn *websocket.Conn) *WSConn {
	return &WSConn{conn: conn}
}

// UpgradeHTTP upgrades an incoming HTTP request to a WebSocket and returns
// it wrapped as a net.Conn.
func UpgradeHTTP(w http.ResponseWriter, r *http.Request) (*WSConn, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewWSConn(conn), nil
}

// Read implements net.Conn. It pulls one WebSocket message at a time off
// the wire and serves it out in however many Read calls the caller makes.
func (c *WSConn) Read(p []byte) (int, error) {
	for len(c.pending) == 0 {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		c.pending = data
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Write implements net.Conn, sending p as a single binary message.
func (c *WSConn) Write(p []byte) (int, error) {
	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements net.Conn.
func (c *WSConn) Close() error { return c.conn.Close() }

// LocalAddr implements net.Conn.
func (c *WSConn) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// RemoteAddr implements net.Conn.
func (c *WSConn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// SetDeadline implements net.Conn.
func (c *WSConn) SetDeadline(t time.Time) error {
	if err := c.conn.SetReadDeadline(t); err != nil {
		return err
	}
	return c.conn.SetWriteDeadline(t)
}

// SetReadDeadline implements net.Conn.
func (c *WSConn) SetReadDeadline(t time.Time) error { return c.conn.SetReadDeadline(t) }

// SetWriteDeadline implements net.Conn.
func (c *WSConn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }

var _ net.Conn = (*WSConn)(nil)
