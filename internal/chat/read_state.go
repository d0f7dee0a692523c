package chat

import (
	"context"
	"errors"
	"time"

	"conversation-service/internal/models"
	"conversation-service/internal/repositories"
)

// ReadStateTracker owns read markers and everything derived from them.
// Unread counts are recomputed from message counts on every call rather
// than cached, so every caller observes identical semantics.
type ReadStateTracker struct {
	participants repositories.ParticipantRepository
	messages     repositories.MessageRepository
}

// NewReadStateTracker constructs a ReadStateTracker.
func NewReadStateTracker(participants repositories.ParticipantRepository, messages repositories.MessageRepository) *ReadStateTracker {
	return &ReadStateTracker{participants: participants, messages: messages}
}

// MarkRead moves the caller's read marker to now. This is the only
// mutation point for last_read_at.
func (t *ReadStateTracker) MarkRead(ctx context.Context, conversationID, userID int64) (models.ReadMarkerEvent, error) {
	readAt := time.Now().UTC()
	if err := t.participants.SetLastReadAt(ctx, conversationID, userID, readAt); err != nil {
		return models.ReadMarkerEvent{}, err
	}
	return models.ReadMarkerEvent{
		Type:           models.EventRead,
		ConversationID: conversationID,
		ReaderUserID:   userID,
		LastReadAt:     readAt,
	}, nil
}

// UnreadCount is the number of messages created after the participant's
// read marker, or every message when the marker was never set. A user with
// no membership has nothing unread.
func (t *ReadStateTracker) UnreadCount(ctx context.Context, conversationID, userID int64) (int, error) {
	p, err := t.participants.Get(ctx, conversationID, userID)
	if errors.Is(err, repositories.ErrParticipantNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if p.LastReadAt == nil {
		return t.messages.CountAll(ctx, conversationID)
	}
	return t.messages.CountAfter(ctx, conversationID, *p.LastReadAt)
}

// TotalUnread sums unread counts over the user's active memberships.
func (t *ReadStateTracker) TotalUnread(ctx context.Context, userID int64) (int, error) {
	parts, err := t.participants.ActiveByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, p := range parts {
		count, err := t.UnreadCount(ctx, p.ConversationID, userID)
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}

// UnreadCounts returns the per-conversation breakdown plus the total.
func (t *ReadStateTracker) UnreadCounts(ctx context.Context, userID int64) (map[int64]int, int, error) {
	parts, err := t.participants.ActiveByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	counts := make(map[int64]int, len(parts))
	total := 0
	for _, p := range parts {
		count, err := t.UnreadCount(ctx, p.ConversationID, userID)
		if err != nil {
			return nil, 0, err
		}
		counts[p.ConversationID] = count
		total += count
	}
	return counts, total, nil
}

// ReadState resolves both read markers of a DIRECT conversation and the
// newest message the caller authored that the peer has already read.
// Conversations with more than one counterpart are rejected: per-peer
// receipts for groups are a product decision, not an aggregate of this.
func (t *ReadStateTracker) ReadState(ctx context.Context, conversationID, userID int64) (models.ReadState, error) {
	parts, err := t.participants.ActiveByConversation(ctx, conversationID)
	if err != nil {
		return models.ReadState{}, err
	}

	var mine *models.Participant
	var peers []models.Participant
	for i := range parts {
		if parts[i].UserID == userID {
			mine = &parts[i]
		} else {
			peers = append(peers, parts[i])
		}
	}
	if mine == nil {
		return models.ReadState{}, ErrNotParticipant
	}
	if len(peers) != 1 {
		return models.ReadState{}, ErrNotDirect
	}
	peer := peers[0]

	state := models.ReadState{
		MyLastReadAt:   mine.LastReadAt,
		PeerLastReadAt: peer.LastReadAt,
		PeerUserID:     peer.UserID,
	}
	if peer.LastReadAt != nil {
		msg, err := t.messages.LastOwnBefore(ctx, conversationID, userID, *peer.LastReadAt)
		if err == nil {
			id := msg.ID
			state.LastSeenOwnMessageID = &id
		} else if !errors.Is(err, repositories.ErrMessageNotFound) {
			return models.ReadState{}, err
		}
	}
	return state, nil
}
