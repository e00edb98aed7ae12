package storage

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a 32-character lowercase hex identifier. IDs appear in
// URLs and directory names, so the alphabet stays filesystem-safe.
func NewID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("storage: reading random bytes: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}
