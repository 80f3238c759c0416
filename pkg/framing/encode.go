package framing

// Encode assembles the wire form of one record: the 2-byte length
// prefix (AAD), the ciphertext, and the authentication tag, with no
// inter-record framing.
func Encode(aad [2]byte, ciphertext, tag []byte) []byte {
	out := make([]byte, 0, 2+len(ciphertext)+len(tag))
	out = append(out, aad[:]...)
	out = append(out, ciphertext...)
	out = append(out, tag...)
	return out
}
