package main

import (
	"crypto/rand"
	"fmt"
)

// randomAccessoryID generates a HAP "id" TXT value: six colon-separated
// uppercase hex byte pairs.
func randomAccessoryID() (string, error) {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3], b[4], b[5]), nil
}
