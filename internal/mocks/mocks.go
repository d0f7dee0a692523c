package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"conversation-service/internal/friends"
	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) GetOrCreateDirect(ctx context.Context, userID, friendID int64) (models.Conversation, error) {
	args := m.Called(ctx, userID, friendID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, conversationID int64) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) HideForUser(ctx context.Context, conversationID, userID int64) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) UnhideForUser(ctx context.Context, conversationID, userID int64) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

type ParticipantRepositoryMock struct {
	mock.Mock
}

func (m *ParticipantRepositoryMock) Get(ctx context.Context, conversationID, userID int64) (models.Participant, error) {
	args := m.Called(ctx, conversationID, userID)
	var p models.Participant
	if val := args.Get(0); val != nil {
		p = val.(models.Participant)
	}
	return p, args.Error(1)
}

func (m *ParticipantRepositoryMock) ActiveByConversation(ctx context.Context, conversationID int64) ([]models.Participant, error) {
	args := m.Called(ctx, conversationID)
	var parts []models.Participant
	if val := args.Get(0); val != nil {
		parts = val.([]models.Participant)
	}
	return parts, args.Error(1)
}

func (m *ParticipantRepositoryMock) ActiveByUser(ctx context.Context, userID int64) ([]models.Participant, error) {
	args := m.Called(ctx, userID)
	var parts []models.Participant
	if val := args.Get(0); val != nil {
		parts = val.([]models.Participant)
	}
	return parts, args.Error(1)
}

func (m *ParticipantRepositoryMock) IsActiveParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ParticipantRepositoryMock) SetLastReadAt(ctx context.Context, conversationID, userID int64, readAt time.Time) error {
	args := m.Called(ctx, conversationID, userID, readAt)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Insert(ctx context.Context, conversationID, senderID int64, cipher, nonce []byte) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, cipher, nonce)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) PageDesc(ctx context.Context, conversationID int64, page, size int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, page, size)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) CountAll(ctx context.Context, conversationID int64) (int, error) {
	args := m.Called(ctx, conversationID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) CountAfter(ctx context.Context, conversationID int64, after time.Time) (int, error) {
	args := m.Called(ctx, conversationID, after)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) LastOwnBefore(ctx context.Context, conversationID, senderID int64, cutoff time.Time) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, cutoff)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type FriendsProviderMock struct {
	mock.Mock
}

func (m *FriendsProviderMock) Friends(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	var ids []int64
	if val := args.Get(0); val != nil {
		ids = val.([]int64)
	}
	return ids, args.Error(1)
}

func (m *FriendsProviderMock) AreFriends(ctx context.Context, userID, friendID int64) (bool, error) {
	args := m.Called(ctx, userID, friendID)
	return args.Bool(0), args.Error(1)
}

var _ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
var _ repositories.ParticipantRepository = (*ParticipantRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ friends.Provider = (*FriendsProviderMock)(nil)
