package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"conversation-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines persistence for encrypted messages. Only
// ciphertext and nonce pass through this layer; decryption happens above.
type MessageRepository interface {
	Insert(ctx context.Context, conversationID, senderID int64, cipher, nonce []byte) (models.Message, error)
	PageDesc(ctx context.Context, conversationID int64, page, size int) ([]models.Message, error)
	CountAll(ctx context.Context, conversationID int64) (int, error)
	CountAfter(ctx context.Context, conversationID int64, after time.Time) (int, error)
	LastOwnBefore(ctx context.Context, conversationID, senderID int64, cutoff time.Time) (models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert appends one encrypted message. The database assigns the
// (created_at, id) ordering key atomically with the row.
func (r *MessageRepo) Insert(ctx context.Context, conversationID, senderID int64, cipher, nonce []byte) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (conversation_id, sender_id, content_cipher, content_nonce) VALUES ($1, $2, $3, $4) RETURNING id, conversation_id, sender_id, content_cipher, content_nonce, created_at`, conversationID, senderID, cipher, nonce).
		StructScan(&msg)
	return msg, err
}

// PageDesc returns one page ordered newest first by (created_at, id).
func (r *MessageRepo) PageDesc(ctx context.Context, conversationID int64, page, size int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, conversation_id, sender_id, content_cipher, content_nonce, created_at FROM messages WHERE conversation_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, conversationID, size, page*size)
	return msgs, err
}

// CountAll counts every message in a conversation.
func (r *MessageRepo) CountAll(ctx context.Context, conversationID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE conversation_id=$1`, conversationID)
	return count, err
}

// CountAfter counts messages created strictly after the given instant.
func (r *MessageRepo) CountAfter(ctx context.Context, conversationID int64, after time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE conversation_id=$1 AND created_at > $2`, conversationID, after)
	return count, err
}

// LastOwnBefore returns the newest message the sender authored at or before
// the cutoff, used to resolve "last message of mine the peer has seen".
func (r *MessageRepo) LastOwnBefore(ctx context.Context, conversationID, senderID int64, cutoff time.Time) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT id, conversation_id, sender_id, content_cipher, content_nonce, created_at FROM messages WHERE conversation_id=$1 AND sender_id=$2 AND created_at <= $3 ORDER BY created_at DESC, id DESC LIMIT 1`, conversationID, senderID, cutoff)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}
