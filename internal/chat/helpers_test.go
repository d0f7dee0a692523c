package chat

import (
	"bytes"
	"context"
	"sync"
	"time"

	"conversation-service/internal/crypto"
	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

// In-memory repository fakes. They honor the same ordering and soft-delete
// semantics as the SQL implementations so the core can be exercised without
// a database.

type fakeStore struct {
	mu           sync.Mutex
	seq          int64
	base         time.Time
	messages     []models.Message
	participants map[[2]int64]*models.Participant
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		base:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		participants: make(map[[2]int64]*models.Participant),
	}
}

func (s *fakeStore) addParticipant(conversationID, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.participants[[2]int64{conversationID, userID}] = &models.Participant{
		ID:             s.seq,
		ConversationID: conversationID,
		UserID:         userID,
		JoinedAt:       s.base,
	}
}

func (s *fakeStore) softDelete(conversationID, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.participants[[2]int64{conversationID, userID}]; ok {
		now := s.base
		p.DeletedAt = &now
	}
}

// messageRepo view

type fakeMessageRepo struct{ store *fakeStore }

func (r *fakeMessageRepo) Insert(ctx context.Context, conversationID, senderID int64, cipher, nonce []byte) (models.Message, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	msg := models.Message{
		ID:             s.seq,
		ConversationID: conversationID,
		SenderID:       senderID,
		ContentCipher:  bytes.Clone(cipher),
		ContentNonce:   bytes.Clone(nonce),
		// Wall-clock creation time, as the database would assign. Ties are
		// broken by id in every consumer.
		CreatedAt: time.Now().UTC(),
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (r *fakeMessageRepo) PageDesc(ctx context.Context, conversationID int64, page, size int) ([]models.Message, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.Message
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ConversationID == conversationID {
			all = append(all, s.messages[i])
		}
	}
	start := page * size
	if start >= len(all) {
		return nil, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r *fakeMessageRepo) CountAll(ctx context.Context, conversationID int64) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) CountAfter(ctx context.Context, conversationID int64, after time.Time) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, m := range s.messages {
		if m.ConversationID == conversationID && m.CreatedAt.After(after) {
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) LastOwnBefore(ctx context.Context, conversationID, senderID int64, cutoff time.Time) (models.Message, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if m.ConversationID == conversationID && m.SenderID == senderID && !m.CreatedAt.After(cutoff) {
			return m, nil
		}
	}
	return models.Message{}, repositories.ErrMessageNotFound
}

// participantRepo view

type fakeParticipantRepo struct{ store *fakeStore }

func (r *fakeParticipantRepo) Get(ctx context.Context, conversationID, userID int64) (models.Participant, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.participants[[2]int64{conversationID, userID}]; ok {
		return *p, nil
	}
	return models.Participant{}, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) ActiveByConversation(ctx context.Context, conversationID int64) ([]models.Participant, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var parts []models.Participant
	for _, p := range s.participants {
		if p.ConversationID == conversationID && p.DeletedAt == nil {
			parts = append(parts, *p)
		}
	}
	sortParticipants(parts)
	return parts, nil
}

func (r *fakeParticipantRepo) ActiveByUser(ctx context.Context, userID int64) ([]models.Participant, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var parts []models.Participant
	for _, p := range s.participants {
		if p.UserID == userID && p.DeletedAt == nil {
			parts = append(parts, *p)
		}
	}
	sortParticipants(parts)
	return parts, nil
}

func (r *fakeParticipantRepo) IsActiveParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[[2]int64{conversationID, userID}]
	return ok && p.DeletedAt == nil, nil
}

func (r *fakeParticipantRepo) SetLastReadAt(ctx context.Context, conversationID, userID int64, readAt time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[[2]int64{conversationID, userID}]
	if !ok || p.DeletedAt != nil {
		return repositories.ErrParticipantNotFound
	}
	p.LastReadAt = &readAt
	return nil
}

func sortParticipants(parts []models.Participant) {
	for i := 1; i < len(parts); i++ {
		for j := i; j > 0 && parts[j].ID < parts[j-1].ID; j-- {
			parts[j], parts[j-1] = parts[j-1], parts[j]
		}
	}
}

// staticFriends is a Provider with a fixed adjacency map.
type staticFriends map[int64][]int64

func (f staticFriends) Friends(ctx context.Context, userID int64) ([]int64, error) {
	return f[userID], nil
}

func (f staticFriends) AreFriends(ctx context.Context, userID, friendID int64) (bool, error) {
	for _, id := range f[userID] {
		if id == friendID {
			return true, nil
		}
	}
	return false, nil
}

func testCodec() *crypto.Codec {
	codec, err := crypto.NewCodec(bytes.Repeat([]byte{0x24}, 32))
	if err != nil {
		panic(err)
	}
	return codec
}

var _ repositories.MessageRepository = (*fakeMessageRepo)(nil)
var _ repositories.ParticipantRepository = (*fakeParticipantRepo)(nil)
