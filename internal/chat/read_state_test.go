package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversation-service/internal/models"
)

func newTestCore(t *testing.T) (*MessageLog, *ReadStateTracker, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	messages := &fakeMessageRepo{store: store}
	participants := &fakeParticipantRepo{store: store}
	log := NewMessageLog(testCodec(), messages, participants)
	tracker := NewReadStateTracker(participants, messages)
	return log, tracker, store
}

func TestUnreadCountNeverReadCountsEverything(t *testing.T) {
	log, tracker, store := newTestCore(t)
	store.addParticipant(1, 10)
	store.addParticipant(1, 20)

	for i := 0; i < 4; i++ {
		_, err := log.Append(context.Background(), 1, 10, "msg")
		require.NoError(t, err)
	}

	count, err := tracker.UnreadCount(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestUnreadmonotonicityAroundMarkRead(t *testing.T) {
	log, tracker, store := newTestCore(t)
	store.addParticipant(1, 10)
	store.addParticipant(1, 20)

	_, err := log.Append(context.Background(), 1, 10, "before")
	require.NoError(t, err)

	_, err = tracker.MarkRead(context.Background(), 1, 20)
	require.NoError(t, err)

	count, err := tracker.UnreadCount(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	// Each of k new sends raises the count by exactly one.
	for k := 1; k <= 3; k++ {
		_, err := log.Append(context.Background(), 1, 10, "after")
		require.NoError(t, err)

		count, err := tracker.UnreadCount(context.Background(), 1, 20)
		require.NoError(t, err)
		require.Equal(t, k, count)
	}

	_, err = tracker.MarkRead(context.Background(), 1, 20)
	require.NoError(t, err)
	count, err = tracker.UnreadCount(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestTotalUnreadSpansConversations(t *testing.T) {
	log, tracker, store := newTestCore(t)
	store.addParticipant(1, 10)
	store.addParticipant(1, 20)
	store.addParticipant(2, 30)
	store.addParticipant(2, 20)

	_, err := log.Append(context.Background(), 1, 10, "a")
	require.NoError(t, err)
	_, err = log.Append(context.Background(), 2, 30, "b")
	require.NoError(t, err)
	_, err = log.Append(context.Background(), 2, 30, "c")
	require.NoError(t, err)

	total, err := tracker.TotalUnread(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	counts, total, err := tracker.UnreadCounts(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, map[int64]int{1: 1, 2: 2}, counts)
}

func TestTotalUnreadSkipsHiddenConversations(t *testing.T) {
	log, tracker, store := newTestCore(t)
	store.addParticipant(1, 10)
	store.addParticipant(1, 20)

	_, err := log.Append(context.Background(), 1, 10, "a")
	require.NoError(t, err)
	store.softDelete(1, 20)

	total, err := tracker.TotalUnread(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestReadStateResolvesPeerAndSeenMessage(t *testing.T) {
	log, tracker, store := newTestCore(t)
	store.addParticipant(1, 10)
	store.addParticipant(1, 20)

	first, err := log.Append(context.Background(), 1, 10, "hi")
	require.NoError(t, err)
	second, err := log.Append(context.Background(), 1, 10, "there")
	require.NoError(t, err)
	_ = first

	// Peer has read nothing yet.
	state, err := tracker.ReadState(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 20, state.PeerUserID)
	assert.Nil(t, state.PeerLastReadAt)
	assert.Nil(t, state.LastSeenOwnMessageID)

	_, err = tracker.MarkRead(context.Background(), 1, 20)
	require.NoError(t, err)

	state, err = tracker.ReadState(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, state.PeerLastReadAt)
	require.NotNil(t, state.LastSeenOwnMessageID)
	assert.Equal(t, second.ID, *state.LastSeenOwnMessageID)

	// A message sent after the peer's read is not "seen".
	third, err := log.Append(context.Background(), 1, 10, "later")
	require.NoError(t, err)
	state, err = tracker.ReadState(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, state.LastSeenOwnMessageID)
	assert.NotEqual(t, third.ID, *state.LastSeenOwnMessageID)
	assert.Equal(t, second.ID, *state.LastSeenOwnMessageID)
}

func TestReadStateRequiresExactlyOnePeer(t *testing.T) {
	_, tracker, store := newTestCore(t)
	store.addParticipant(1, 10)
	store.addParticipant(1, 20)
	store.addParticipant(1, 30)

	_, err := tracker.ReadState(context.Background(), 1, 10)
	require.ErrorIs(t, err, ErrNotDirect)

	_, err = tracker.ReadState(context.Background(), 1, 99)
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestMarkReadEventShape(t *testing.T) {
	_, tracker, store := newTestCore(t)
	store.addParticipant(1, 20)

	event, err := tracker.MarkRead(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, models.EventRead, event.Type)
	assert.EqualValues(t, 1, event.ConversationID)
	assert.EqualValues(t, 20, event.ReaderUserID)
	assert.False(t, event.LastReadAt.IsZero())
}
