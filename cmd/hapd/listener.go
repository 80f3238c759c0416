package main

import (
	"net"
	"time"

	"github.com/Roba1993/hap/pkg/channel"
)

// hapAddr is a synthetic net.Addr for connections whose endpoint is a
// Bridge rather than a real socket.
type hapAddr string

func (a hapAddr) Network() string { return "hap" }
func (a hapAddr) String() string  { return string(a) }

// bridgeConn adapts a channel.Bridge's plaintext io.ReadWriteCloser
// into a net.Conn, so the stdlib net/http server can drive HTTP
// requests and responses over it exactly as it would a TCP socket.
// Deadlines are accepted but ignored: the Bridge has no underlying
// timeout primitive, and the Driver already tears the Bridge down on
// socket error or peer close.
type bridgeConn struct {
	*channel.Bridge
	local, remote net.Addr
}

func newBridgeConn(b *channel.Bridge, remote net.Addr) *bridgeConn {
	return &bridgeConn{Bridge: b, local: hapAddr("hapd"), remote: remote}
}

func (c *bridgeConn) LocalAddr() net.Addr              { return c.local }
func (c *bridgeConn) RemoteAddr() net.Addr             { return c.remote }
func (c *bridgeConn) SetDeadline(time.Time) error      { return nil }
func (c *bridgeConn) SetReadDeadline(time.Time) error  { return nil }
func (c *bridgeConn) SetWriteDeadline(time.Time) error { return nil }

// singleConnListener is a net.Listener that yields exactly one
// pre-accepted net.Conn, then reports closed. http.Serve expects a
// Listener that can be Accept()-ed in a loop; a Secure Channel's
// Bridge is already a single accepted connection, so this adapter lets
// one http.Server.Serve goroutine run per Bridge.
type singleConnListener struct {
	ch   chan net.Conn
	addr net.Addr
}

func newSingleConnListener(conn net.Conn) *singleConnListener {
	ch := make(chan net.Conn, 1)
	ch <- conn
	close(ch)
	return &singleConnListener{ch: ch, addr: conn.LocalAddr()}
}

func (l *singleConnListener) Accept() (net.Conn, error) {
	c, ok := <-l.ch
	if !ok {
		return nil, net.ErrClosed
	}
	return c, nil
}

func (l *singleConnListener) Close() error   { return nil }
func (l *singleConnListener) Addr() net.Addr { return l.addr }
