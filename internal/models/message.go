package models

import "time"

// Message is the persisted, encrypted form of a chat message. Only the
// ciphertext and nonce are durable; plaintext exists in memory only.
// Ordering within a conversation is (CreatedAt, ID).
type Message struct {
	ID             int64     `db:"id"`
	ConversationID int64     `db:"conversation_id"`
	SenderID       int64     `db:"sender_id"`
	ContentCipher  []byte    `db:"content_cipher"`
	ContentNonce   []byte    `db:"content_nonce"`
	CreatedAt      time.Time `db:"created_at"`
}

// MessageDTO is the decrypted view handed to clients. A message whose
// ciphertext fails authentication carries the placeholder content instead.
type MessageDTO struct {
	ID             int64     `json:"id"`
	SenderID       int64     `json:"senderId"`
	ConversationID int64     `json:"conversationId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}
