package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrIntegrity is returned when authentication of a ciphertext fails or the
// stored nonce/ciphertext is malformed. Callers treat it as a corruption
// signal on the affected message, never as a fatal condition.
var ErrIntegrity = errors.New("message integrity check failed")

// Codec seals and opens message bodies with AES-GCM. The associated data
// binds every ciphertext to the (conversation, sender) pair that produced
// it, so a ciphertext replayed under a different conversation or sender
// fails verification even with the right key.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec from a raw 16/24/32 byte key. A key of any other
// length is a startup error.
func NewCodec(key []byte) (*Codec, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("aes key must be 16/24/32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// AAD encodes the conversation and sender identifiers as two big-endian
// 64-bit integers.
func AAD(conversationID, senderID int64) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], uint64(conversationID))
	binary.BigEndian.PutUint64(buf[8:], uint64(senderID))
	return buf
}

// Encrypt seals plaintext under a fresh random 96-bit nonce and returns the
// nonce and the ciphertext with the 128-bit tag appended.
func (c *Codec) Encrypt(plaintext, aad []byte) (nonce, ciphertext []byte, err error) {
	nonce = make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}
	ciphertext = c.aead.Seal(nil, nonce, plaintext, aad)
	return nonce, ciphertext, nil
}

// Decrypt opens a stored ciphertext. Any authentication or shape failure is
// reported as ErrIntegrity.
func (c *Codec) Decrypt(nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(nonce) != c.aead.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce length %d", ErrIntegrity, len(nonce))
	}
	if len(ciphertext) < c.aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext shorter than tag", ErrIntegrity)
	}
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return plaintext, nil
}
