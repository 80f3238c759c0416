package crypto

import (
	"bytes"
	"testing"
)

func TestDeriveKeysRejectsShortSecret(t *testing.T) {
	if _, err := DeriveKeys(make([]byte, 31)); err != ErrInvalidSharedSecret {
		t.Fatalf("got %v, want ErrInvalidSharedSecret", err)
	}
	if _, err := DeriveKeys(make([]byte, 33)); err != ErrInvalidSharedSecret {
		t.Fatalf("got %v, want ErrInvalidSharedSecret", err)
	}
}

func TestDeriveKeysDeterministic(t *testing.T) {
	secret := make([]byte, SharedSecretSize)
	for i := range secret {
		secret[i] = byte(i)
	}

	a, err := DeriveKeys(secret)
	if err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	b, err := DeriveKeys(secret)
	if err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}

	if a.AccessoryWriteKey != b.AccessoryWriteKey {
		t.Fatal("AccessoryWriteKey not deterministic")
	}
	if a.AccessoryReadKey != b.AccessoryReadKey {
		t.Fatal("AccessoryReadKey not deterministic")
	}
}

// TestDeriveKeysLabelCrossover locks in the HAP-mandated crossover: the
// accessory's write key must come from the "Control-Read-Encryption-Key"
// info string (the controller's read key), and vice versa. Swapping the
// crossover must change both derived keys.
func TestDeriveKeysLabelCrossover(t *testing.T) {
	secret := bytes.Repeat([]byte{0x42}, SharedSecretSize)

	keys, err := DeriveKeys(secret)
	if err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}

	swappedWrite, err := hkdfExpand(secret, infoControllerWrite)
	if err != nil {
		t.Fatalf("hkdfExpand: %v", err)
	}
	swappedRead, err := hkdfExpand(secret, infoControllerRead)
	if err != nil {
		t.Fatalf("hkdfExpand: %v", err)
	}

	if bytes.Equal(keys.AccessoryWriteKey[:], swappedWrite) {
		t.Fatal("AccessoryWriteKey must not equal the controller-write-info derivation")
	}
	if bytes.Equal(keys.AccessoryReadKey[:], swappedRead) {
		t.Fatal("AccessoryReadKey must not equal the controller-read-info derivation")
	}
	if !bytes.Equal(keys.AccessoryWriteKey[:], swappedRead) {
		t.Fatal("AccessoryWriteKey must equal the controller-read-info derivation (crossover)")
	}
	if !bytes.Equal(keys.AccessoryReadKey[:], swappedWrite) {
		t.Fatal("AccessoryReadKey must equal the controller-write-info derivation (crossover)")
	}
}

func TestDeriveKeysZeroSecretVectors(t *testing.T) {
	// S2 from spec.md: shared secret = 32 zero bytes. The derived write
	// key must not be all-zero, and the two direction keys must differ.
	secret := make([]byte, SharedSecretSize)

	keys, err := DeriveKeys(secret)
	if err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	if keys.AccessoryWriteKey == ([DirectionKeySize]byte{}) {
		t.Fatal("AccessoryWriteKey must not be all-zero for a zero IKM")
	}
	if keys.AccessoryReadKey == keys.AccessoryWriteKey {
		t.Fatal("read and write keys must differ")
	}
}
