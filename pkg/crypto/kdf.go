// Package crypto implements the per-session cryptographic primitives of
// the HAP secure channel: HKDF-SHA-512 direction-key derivation and
// ChaCha20-Poly1305 record encryption, as defined by the HomeKit
// Accessory Protocol's "Session Security" chapter.
package crypto

import (
	"crypto/sha512"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SharedSecretSize is the size in bytes of the pair-verify shared
// secret used as HKDF input keying material.
const SharedSecretSize = 32

// DirectionKeySize is the size in bytes of each derived direction key.
const DirectionKeySize = 32

// controlSalt is the fixed HKDF salt for control-channel key derivation.
var controlSalt = []byte("Control-Salt")

// Info strings are named from the controller's perspective, per the HAP
// specification. The accessory's "write key" (used to encrypt outbound
// records) is the controller's "read key", and vice versa — the
// crossover below is intentional and must not be "fixed".
const (
	infoControllerRead  = "Control-Read-Encryption-Key"
	infoControllerWrite = "Control-Write-Encryption-Key"
)

// DirectionKeys holds the pair of per-direction symmetric keys derived
// from a pair-verify shared secret.
type DirectionKeys struct {
	// AccessoryWriteKey encrypts records the accessory sends to the
	// controller. Derived from the controller's read-key info string.
	AccessoryWriteKey [DirectionKeySize]byte

	// AccessoryReadKey decrypts records the accessory receives from the
	// controller. Derived from the controller's write-key info string.
	AccessoryReadKey [DirectionKeySize]byte
}

// DeriveKeys derives both direction keys from a 32-byte pair-verify
// shared secret via HKDF-SHA-512 with salt "Control-Salt", per HAP's
// Session Security chapter. It is called exactly once, at session
// establishment.
//
// The crossover between "read" and "write" is deliberate: the
// accessory's write key uses the info string the controller calls its
// *read* key, because the label always names the key from the
// controller's point of view.
func DeriveKeys(sharedSecret []byte) (DirectionKeys, error) {
	if len(sharedSecret) != SharedSecretSize {
		return DirectionKeys{}, ErrInvalidSharedSecret
	}

	var keys DirectionKeys

	writeKey, err := hkdfExpand(sharedSecret, infoControllerRead)
	if err != nil {
		return DirectionKeys{}, err
	}
	copy(keys.AccessoryWriteKey[:], writeKey)

	readKey, err := hkdfExpand(sharedSecret, infoControllerWrite)
	if err != nil {
		return DirectionKeys{}, err
	}
	copy(keys.AccessoryReadKey[:], readKey)

	return keys, nil
}

func hkdfExpand(ikm []byte, info string) ([]byte, error) {
	reader := hkdf.New(sha512.New, ikm, controlSalt, []byte(info))
	out := make([]byte, DirectionKeySize)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}
