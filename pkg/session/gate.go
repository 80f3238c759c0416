package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Roba1993/hap/pkg/crypto"
)

// adopted holds the state latched once a Session arrives.
type adopted struct {
	keys         crypto.DirectionKeys
	controllerID uuid.UUID
}

// Gate holds the Secure Channel's pre-session/post-session state. It
// starts empty in ModePassthrough; TryAdopt performs a non-blocking
// check of the pending session and, on arrival, derives both direction
// keys and latches ModeEncrypted permanently (spec.md §3: the
// transition is one-way).
//
// Gate is safe for concurrent use: the Driver's two pumps both call
// TryAdopt and then Keys() for every chunk they handle.
type Gate struct {
	pending *PendingSession

	mu      sync.RWMutex
	current *adopted
}

// NewGate creates a Gate that will adopt the Session delivered on
// pending, whenever TryAdopt next observes it.
func NewGate(pending *PendingSession) *Gate {
	return &Gate{pending: pending}
}

// Mode reports the Gate's current phase.
func (g *Gate) Mode() Mode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return ModePassthrough
	}
	return ModeEncrypted
}

// TryAdopt performs a non-blocking check of the pending session
// delivery. If a Session has arrived, it derives both direction keys
// and latches ModeEncrypted. It is idempotent: once adopted, further
// calls are no-ops. Returns true the call that performs the adoption.
func (g *Gate) TryAdopt() (bool, error) {
	g.mu.RLock()
	already := g.current != nil
	g.mu.RUnlock()
	if already {
		return false, nil
	}

	select {
	case sess, ok := <-g.pending.Receiver():
		if !ok {
			// Channel closed without a session: stay in passthrough
			// permanently (spec.md §7's SessionChannelClosed case). This
			// is not reported as an error.
			return false, nil
		}

		keys, err := crypto.DeriveKeys(sess.SharedSecret[:])
		if err != nil {
			return false, err
		}

		g.mu.Lock()
		if g.current == nil {
			g.current = &adopted{keys: keys, controllerID: sess.ControllerID}
		}
		g.mu.Unlock()
		return true, nil
	default:
		return false, nil
	}
}

// Keys returns the derived direction keys once adopted. ok is false in
// ModePassthrough.
func (g *Gate) Keys() (keys crypto.DirectionKeys, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return crypto.DirectionKeys{}, false
	}
	return g.current.keys, true
}

// ControllerID returns the adopted session's controller ID. ok is
// false in ModePassthrough. This is the read-mostly handle the HTTP
// layer uses to attribute requests to a controller (spec.md §4.3).
func (g *Gate) ControllerID() (id uuid.UUID, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return uuid.UUID{}, false
	}
	return g.current.controllerID, true
}
