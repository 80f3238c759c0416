package channel

import (
	"context"
	"net"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/Roba1993/hap/pkg/session"
)

// Channel is the Secure Channel of spec.md §2: the single object the
// rest of the server holds per accepted TCP connection. It wraps a
// Driver and exposes the Plaintext Bridge plus the read-only
// controller-id handle; Run blocks until the connection ends.
type Channel struct {
	driver *Driver
	bridge *Bridge
}

// New accepts ownership of conn and wires up a Channel ready to Run.
// pending is the one-shot session delivery point for this connection,
// created by the (out-of-scope) pair-verify collaborator handling the
// same connection's cleartext HTTP traffic.
func New(conn net.Conn, pending *session.PendingSession, loggerFactory logging.LoggerFactory, metrics Metrics) *Channel {
	driver, bridge := NewDriver(Config{
		Conn:          conn,
		Pending:       pending,
		LoggerFactory: loggerFactory,
		Metrics:       metrics,
	})
	return &Channel{driver: driver, bridge: bridge}
}

// Bridge returns the bidirectional plaintext stream the HTTP layer
// reads requests from and writes responses/events to.
func (c *Channel) Bridge() *Bridge {
	return c.bridge
}

// ControllerID reports the adopted session's controller id. ok is
// false until the Passthrough→Encrypted transition has happened.
func (c *Channel) ControllerID() (uuid.UUID, bool) {
	return c.driver.ControllerID()
}

// Run starts the Driver and blocks until the connection closes,
// cancelling on ctx or on a fatal I/O/auth/framing error. A clean peer
// EOF is reported as a nil error.
func (c *Channel) Run(ctx context.Context) error {
	return c.driver.Run(ctx)
}
