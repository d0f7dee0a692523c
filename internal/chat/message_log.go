package chat

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"conversation-service/internal/crypto"
	"conversation-service/internal/models"
	"conversation-service/internal/observability"
	"conversation-service/internal/repositories"
)

// DecryptionPlaceholder substitutes the content of a message whose stored
// ciphertext no longer authenticates. The rest of the page is unaffected.
const DecryptionPlaceholder = "[Decryption failed]"

// MessageLog is the ordered, append-only, per-conversation message store.
// Bodies are sealed before they reach the repository and opened lazily on
// read; plaintext is never persisted.
type MessageLog struct {
	codec        *crypto.Codec
	messages     repositories.MessageRepository
	participants repositories.ParticipantRepository

	appendLocks stripedLock
}

// NewMessageLog constructs a MessageLog.
func NewMessageLog(codec *crypto.Codec, messages repositories.MessageRepository, participants repositories.ParticipantRepository) *MessageLog {
	return &MessageLog{codec: codec, messages: messages, participants: participants}
}

// Append validates, encrypts and persists one message, returning the
// decrypted view for delivery. Appends to the same conversation are
// serialized so concurrent sends receive strictly ordered
// (created_at, id) keys; different conversations do not contend.
func (l *MessageLog) Append(ctx context.Context, conversationID, senderID int64, plaintext string) (models.MessageDTO, error) {
	if strings.TrimSpace(plaintext) == "" {
		return models.MessageDTO{}, ErrEmptyMessage
	}
	if len([]rune(plaintext)) > MaxMessageLength {
		return models.MessageDTO{}, ErrMessageTooLong
	}

	active, err := l.participants.IsActiveParticipant(ctx, conversationID, senderID)
	if err != nil {
		return models.MessageDTO{}, err
	}
	if !active {
		return models.MessageDTO{}, ErrNotParticipant
	}

	nonce, cipher, err := l.codec.Encrypt([]byte(plaintext), crypto.AAD(conversationID, senderID))
	if err != nil {
		return models.MessageDTO{}, err
	}

	mu := l.appendLocks.lock(conversationID)
	msg, err := l.messages.Insert(ctx, conversationID, senderID, cipher, nonce)
	mu.Unlock()
	if err != nil {
		return models.MessageDTO{}, err
	}

	observability.IncMessagePersisted()
	return models.MessageDTO{
		ID:             msg.ID,
		SenderID:       msg.SenderID,
		ConversationID: msg.ConversationID,
		Content:        plaintext,
		CreatedAt:      msg.CreatedAt,
	}, nil
}

// Page returns one page of messages, newest first.
func (l *MessageLog) Page(ctx context.Context, conversationID int64, page, size int) ([]models.MessageDTO, error) {
	msgs, err := l.messages.PageDesc(ctx, conversationID, page, size)
	if err != nil {
		return nil, err
	}
	return l.decryptAll(msgs), nil
}

// Latest returns the newest limit messages in chronological (oldest-first)
// order: the same descending fetch as Page, reversed exactly.
func (l *MessageLog) Latest(ctx context.Context, conversationID int64, limit int) ([]models.MessageDTO, error) {
	msgs, err := l.messages.PageDesc(ctx, conversationID, 0, limit)
	if err != nil {
		return nil, err
	}
	dtos := l.decryptAll(msgs)
	for i, j := 0, len(dtos)-1; i < j; i, j = i+1, j-1 {
		dtos[i], dtos[j] = dtos[j], dtos[i]
	}
	return dtos, nil
}

func (l *MessageLog) decryptAll(msgs []models.Message) []models.MessageDTO {
	dtos := make([]models.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		dtos = append(dtos, l.decrypt(m))
	}
	return dtos
}

// decrypt opens one stored message. A failing ciphertext becomes the
// placeholder; the event is logged without any payload material.
func (l *MessageLog) decrypt(m models.Message) models.MessageDTO {
	dto := models.MessageDTO{
		ID:             m.ID,
		SenderID:       m.SenderID,
		ConversationID: m.ConversationID,
		CreatedAt:      m.CreatedAt,
	}
	plain, err := l.codec.Decrypt(m.ContentNonce, m.ContentCipher, crypto.AAD(m.ConversationID, m.SenderID))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"message_id":      m.ID,
			"conversation_id": m.ConversationID,
		}).WithError(err).Error("message failed integrity check")
		observability.IncIntegrityFailure()
		dto.Content = DecryptionPlaceholder
		return dto
	}
	dto.Content = string(plain)
	return dto
}
