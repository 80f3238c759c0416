package session

// Mode identifies which of the Secure Channel's two mutually exclusive
// phases a Gate is in. The transition from Passthrough to Encrypted is
// one-way (spec.md §3).
type Mode int

const (
	// ModePassthrough is the pre-session phase: cleartext HTTP traffic
	// for pair-setup and pair-verify crosses the socket unchanged.
	ModePassthrough Mode = iota

	// ModeEncrypted is the post-session phase: every record is
	// authenticated-encrypted under the session's derived keys.
	ModeEncrypted
)

// String returns a human-readable name for the mode.
func (m Mode) String() string {
	switch m {
	case ModePassthrough:
		return "Passthrough"
	case ModeEncrypted:
		return "Encrypted"
	default:
		return "Unknown"
	}
}
