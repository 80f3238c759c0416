package session

// PendingSession is a one-shot delivery point for a Session, played by
// the pair-verify collaborator (out of scope here — see spec.md §1).
// Send delivers the session and closes the channel; the producer side
// closing without sending leaves the consumer permanently in
// passthrough mode (spec.md §7's SessionChannelClosed case).
type PendingSession struct {
	ch chan Session
}

// NewPendingSession creates an unreadied PendingSession.
func NewPendingSession() *PendingSession {
	return &PendingSession{ch: make(chan Session, 1)}
}

// Send delivers sess to the one waiting receiver and closes the
// delivery channel. Calling Send more than once panics, matching a
// one-shot channel's single-use contract.
func (p *PendingSession) Send(sess Session) {
	p.ch <- sess
	close(p.ch)
}

// Close abandons the pending session without ever delivering one. Used
// by a pair-verify collaborator that gives up (e.g. the controller
// disconnected mid-handshake).
func (p *PendingSession) Close() {
	close(p.ch)
}

// Receiver returns the read-only side of the delivery channel. The
// Session Gate reads from this without blocking (see Gate.TryAdopt).
func (p *PendingSession) Receiver() <-chan Session {
	return p.ch
}
