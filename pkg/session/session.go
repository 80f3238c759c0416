// Package session holds the pair-verify handoff: the Session value
// produced once per connection by the (out-of-scope) pair-verify
// collaborator, the one-shot channel that delivers it, and the Gate
// that latches the Secure Channel from passthrough into encrypted mode
// on its arrival.
package session

import (
	"github.com/google/uuid"
)

// SharedSecretSize is the size in bytes of the pair-verify shared
// secret carried by a Session.
const SharedSecretSize = 32

// Session is the opaque handle the pair-verify collaborator hands to a
// waiting Secure Channel exactly once. It is consumed on arrival: its
// shared secret is copied into the channel's derived keys and never
// retained beyond that.
type Session struct {
	// ControllerID identifies the paired controller this session
	// belongs to.
	ControllerID uuid.UUID

	// SharedSecret is the 32-byte pair-verify shared secret used as
	// HKDF input keying material.
	SharedSecret [SharedSecretSize]byte
}
