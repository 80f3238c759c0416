package channel

import (
	"errors"
	"fmt"
)

// Kind classifies a channel-fatal error per spec.md §7.
type Kind int

const (
	// KindSocketIO is any underlying socket read/write failure.
	KindSocketIO Kind = iota

	// KindFrameTooLarge is a length prefix outside [1, 1024].
	KindFrameTooLarge

	// KindAuthenticationFailed is an AEAD tag verification failure.
	KindAuthenticationFailed

	// KindSessionChannelClosed is the pair-verify collaborator dropping
	// the one-shot channel without ever sending a Session. Not fatal on
	// its own: the channel simply stays in Passthrough mode forever.
	KindSessionChannelClosed

	// KindPeerClosed is a clean EOF from the socket.
	KindPeerClosed
)

func (k Kind) String() string {
	switch k {
	case KindSocketIO:
		return "SocketIO"
	case KindFrameTooLarge:
		return "FrameTooLarge"
	case KindAuthenticationFailed:
		return "AuthenticationFailed"
	case KindSessionChannelClosed:
		return "SessionChannelClosed"
	case KindPeerClosed:
		return "PeerClosed"
	default:
		return "Unknown"
	}
}

// Error wraps a Driver-fatal condition with its taxonomy Kind. Only
// KindPeerClosed is a normal (non-error-logged) termination; every
// other Kind ends the connection per spec.md §7's "any fatal error
// terminates the Driver and closes the socket" policy.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("channel: %s", e.Kind)
	}
	return fmt.Sprintf("channel: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrPeerClosed is the canonical sentinel for a clean socket EOF.
var ErrPeerClosed = errors.New("channel: peer closed")

// newError wraps err under kind, substituting ErrPeerClosed's sentinel
// when err is nil (used for the EOF path, which carries no underlying
// error of its own).
func newError(kind Kind, err error) *Error {
	if err == nil && kind == KindPeerClosed {
		err = ErrPeerClosed
	}
	return &Error{Kind: kind, Err: err}
}
