package crypto

import "errors"

// Package crypto errors.
var (
	// ErrInvalidSharedSecret is returned when a shared secret is not 32 bytes.
	ErrInvalidSharedSecret = errors.New("crypto: shared secret must be 32 bytes")

	// ErrPlaintextTooLarge is returned when a plaintext exceeds MaxPlaintextSize.
	ErrPlaintextTooLarge = errors.New("crypto: plaintext exceeds maximum record size")

	// ErrAuthenticationFailed is returned when AEAD tag verification fails.
	ErrAuthenticationFailed = errors.New("crypto: authentication failed")

	// ErrCounterExhausted is returned when a 64-bit direction counter would wrap.
	ErrCounterExhausted = errors.New("crypto: direction counter exhausted")
)
