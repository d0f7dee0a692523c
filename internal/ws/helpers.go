package ws

import (
	"crypto/rand"
	"encoding/hex"
)

// newConnID returns a random 128-bit hex identifier for one connection.
// Empty only when the entropy source fails; log correlation degrades, the
// connection itself is unaffected.
func newConnID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(buf[:])
}
