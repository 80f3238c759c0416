package crypto

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20poly1305"
)

// MaxPlaintextSize is the largest plaintext a single record may carry
// (spec: 1 <= L <= 1024).
const MaxPlaintextSize = 1024

// TagSize is the ChaCha20-Poly1305 authentication tag length.
const TagSize = chacha20poly1305.Overhead

// buildNonce constructs the 12-byte ChaCha20-Poly1305 nonce for a
// record: 4 zero bytes followed by the little-endian 64-bit counter.
func buildNonce(counter uint64) [chacha20poly1305.NonceSize]byte {
	var nonce [chacha20poly1305.NonceSize]byte
	binary.LittleEndian.PutUint64(nonce[4:], counter)
	return nonce
}

// EncryptRecord authenticated-encrypts plaintext (at most
// MaxPlaintextSize bytes) under key using counter as the nonce source,
// then advances counter by one. The 2-byte little-endian plaintext
// length is used as AEAD associated data, binding the length to the
// tag so a record cannot be truncated without detection.
//
// Returns the AAD, ciphertext (same length as plaintext) and the
// 16-byte authentication tag, matching the wire layout of spec.md §6.
func EncryptRecord(key [DirectionKeySize]byte, plaintext []byte, counter *Counter) (aad [2]byte, ciphertext, tag []byte, err error) {
	if len(plaintext) > MaxPlaintextSize {
		return aad, nil, nil, ErrPlaintextTooLarge
	}

	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return aad, nil, nil, err
	}

	n, err := counter.next()
	if err != nil {
		return aad, nil, nil, err
	}
	nonce := buildNonce(n)

	binary.LittleEndian.PutUint16(aad[:], uint16(len(plaintext)))

	sealed := aead.Seal(nil, nonce[:], plaintext, aad[:])
	ciphertext = sealed[:len(sealed)-TagSize]
	tag = sealed[len(sealed)-TagSize:]
	return aad, ciphertext, tag, nil
}

// DecryptRecord authenticated-decrypts a record's ciphertext||tag under
// key using counter as the nonce source, verifying aad (the record's
// 2-byte length prefix) as associated data, then advances counter by
// one. Returns ErrAuthenticationFailed on tag mismatch; no partial
// plaintext is ever returned on failure.
func DecryptRecord(key [DirectionKeySize]byte, aad [2]byte, ciphertext, tag []byte, counter *Counter) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}

	// The nonce is built from the counter's current value without
	// advancing it: an authentication failure is always terminal for
	// the channel (spec.md §7), so there is never a second decrypt on
	// the same counter to get wrong by advancing too early.
	nonce := buildNonce(counter.peek())

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce[:], sealed, aad[:])
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	if err := counter.advance(); err != nil {
		return nil, err
	}
	return plaintext, nil
}
