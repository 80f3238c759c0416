package crypto

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func testKeys(t *testing.T) DirectionKeys {
	t.Helper()
	secret := make([]byte, SharedSecretSize)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	keys, err := DeriveKeys(secret)
	if err != nil {
		t.Fatalf("DeriveKeys: %v", err)
	}
	return keys
}

// TestRoundTrip covers spec.md §8 property 2: for a spread of plaintext
// sizes from 1 to MaxPlaintextSize, decrypt(encrypt(p)) == p over a
// paired encryptor/decryptor with aligned counters.
func TestRoundTrip(t *testing.T) {
	keys := testKeys(t)

	for _, size := range []int{1, 2, 17, 255, 256, 1000, 1023, 1024} {
		plaintext := make([]byte, size)
		if _, err := rand.Read(plaintext); err != nil {
			t.Fatalf("rand.Read: %v", err)
		}

		var writeCtr, readCtr Counter
		aad, ciphertext, tag, err := EncryptRecord(keys.AccessoryWriteKey, plaintext, &writeCtr)
		if err != nil {
			t.Fatalf("size %d: EncryptRecord: %v", size, err)
		}

		got, err := DecryptRecord(keys.AccessoryWriteKey, aad, ciphertext, tag, &readCtr)
		if err != nil {
			t.Fatalf("size %d: DecryptRecord: %v", size, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("size %d: round trip mismatch", size)
		}
	}
}

func TestEncryptRecordRejectsOversizePlaintext(t *testing.T) {
	keys := testKeys(t)
	var ctr Counter
	_, _, _, err := EncryptRecord(keys.AccessoryWriteKey, make([]byte, MaxPlaintextSize+1), &ctr)
	if err != ErrPlaintextTooLarge {
		t.Fatalf("got %v, want ErrPlaintextTooLarge", err)
	}
}

// TestCounterMonotonicity covers spec.md §8 property 4.
func TestCounterMonotonicity(t *testing.T) {
	keys := testKeys(t)
	var ctr Counter

	for k := 0; k < 5; k++ {
		if ctr.Value() != uint64(k) {
			t.Fatalf("before record %d: counter = %d, want %d", k, ctr.Value(), k)
		}
		if _, _, _, err := EncryptRecord(keys.AccessoryWriteKey, []byte{byte(k)}, &ctr); err != nil {
			t.Fatalf("EncryptRecord: %v", err)
		}
	}
	if ctr.Value() != 5 {
		t.Fatalf("counter = %d, want 5", ctr.Value())
	}
}

// TestEncryptDeterministicGivenSameKeyAndCounter covers the second half
// of spec.md §8 property 4: two encryptors from the same key produce
// byte-identical ciphertext given identical plaintext sequences.
func TestEncryptDeterministicGivenSameKeyAndCounter(t *testing.T) {
	keys := testKeys(t)
	plaintexts := [][]byte{[]byte("hello"), []byte("world"), {0x00, 0x01, 0x02}}

	run := func() (aads [][2]byte, cts, tags [][]byte) {
		var ctr Counter
		for _, p := range plaintexts {
			aad, ct, tag, err := EncryptRecord(keys.AccessoryWriteKey, p, &ctr)
			if err != nil {
				t.Fatalf("EncryptRecord: %v", err)
			}
			aads = append(aads, aad)
			cts = append(cts, ct)
			tags = append(tags, tag)
		}
		return
	}

	aads1, cts1, tags1 := run()
	aads2, cts2, tags2 := run()

	for i := range plaintexts {
		if aads1[i] != aads2[i] || !bytes.Equal(cts1[i], cts2[i]) || !bytes.Equal(tags1[i], tags2[i]) {
			t.Fatalf("record %d: encryption not deterministic across runs", i)
		}
	}
}

// TestAuthenticationFailureOnBitFlip covers spec.md §8 property 5 at the
// record level: flipping a bit in ciphertext, tag, or AAD must fail
// verification, and must not leak partial plaintext.
func TestAuthenticationFailureOnBitFlip(t *testing.T) {
	keys := testKeys(t)

	fresh := func() (aad [2]byte, ct, tag []byte) {
		var ctr Counter
		var err error
		aad, ct, tag, err = EncryptRecord(keys.AccessoryWriteKey, []byte("sensitive payload"), &ctr)
		if err != nil {
			t.Fatalf("EncryptRecord: %v", err)
		}
		return
	}

	t.Run("flip ciphertext", func(t *testing.T) {
		aad, ct, tag := fresh()
		ct[0] ^= 0x01
		var ctr Counter
		if plaintext, err := DecryptRecord(keys.AccessoryWriteKey, aad, ct, tag, &ctr); err != ErrAuthenticationFailed || plaintext != nil {
			t.Fatalf("got (%v, %v), want (nil, ErrAuthenticationFailed)", plaintext, err)
		}
	})

	t.Run("flip tag", func(t *testing.T) {
		aad, ct, tag := fresh()
		tag[0] ^= 0x01
		var ctr Counter
		if plaintext, err := DecryptRecord(keys.AccessoryWriteKey, aad, ct, tag, &ctr); err != ErrAuthenticationFailed || plaintext != nil {
			t.Fatalf("got (%v, %v), want (nil, ErrAuthenticationFailed)", plaintext, err)
		}
	})

	t.Run("flip aad length", func(t *testing.T) {
		aad, ct, tag := fresh()
		aad[0] ^= 0x01
		var ctr Counter
		if plaintext, err := DecryptRecord(keys.AccessoryWriteKey, aad, ct, tag, &ctr); err != ErrAuthenticationFailed || plaintext != nil {
			t.Fatalf("got (%v, %v), want (nil, ErrAuthenticationFailed)", plaintext, err)
		}
	})

	t.Run("counter does not advance on failure", func(t *testing.T) {
		aad, ct, tag := fresh()
		tag[0] ^= 0x01
		var ctr Counter
		if _, err := DecryptRecord(keys.AccessoryWriteKey, aad, ct, tag, &ctr); err == nil {
			t.Fatal("expected failure")
		}
		if ctr.Value() != 0 {
			t.Fatalf("counter = %d, want 0 after a failed decrypt", ctr.Value())
		}
	})
}

// TestDirectionKeyAsymmetry covers spec.md §8 property 7: decrypting
// with the wrong direction's key must fail authentication.
func TestDirectionKeyAsymmetry(t *testing.T) {
	keys := testKeys(t)

	var writeCtr Counter
	aad, ct, tag, err := EncryptRecord(keys.AccessoryWriteKey, []byte("x"), &writeCtr)
	if err != nil {
		t.Fatalf("EncryptRecord: %v", err)
	}

	var readCtr Counter
	if _, err := DecryptRecord(keys.AccessoryReadKey, aad, ct, tag, &readCtr); err != ErrAuthenticationFailed {
		t.Fatalf("got %v, want ErrAuthenticationFailed", err)
	}
}
