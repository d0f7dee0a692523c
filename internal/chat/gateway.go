package chat

import (
	"context"

	"github.com/sirupsen/logrus"

	"conversation-service/internal/friends"
	"conversation-service/internal/models"
	"conversation-service/internal/notify"
	"conversation-service/internal/observability"
	"conversation-service/internal/repositories"
)

// Gateway is the public facade of the messaging core. It orchestrates the
// message log, the read-state tracker and the session registry, and fans
// results out to participants through the notification bus. Fan-out is
// fire-and-forget: once a write has been persisted, no delivery failure
// can undo it.
type Gateway struct {
	log          *MessageLog
	readState    *ReadStateTracker
	sessions     *SessionRegistry
	participants repositories.ParticipantRepository
	friends      friends.Provider
	bus          notify.Bus
}

// NewGateway wires the core together.
func NewGateway(log *MessageLog, readState *ReadStateTracker, sessions *SessionRegistry, participants repositories.ParticipantRepository, friendsProvider friends.Provider, bus notify.Bus) *Gateway {
	return &Gateway{
		log:          log,
		readState:    readState,
		sessions:     sessions,
		participants: participants,
		friends:      friendsProvider,
		bus:          bus,
	}
}

// Send appends one message and delivers it to every active participant,
// sender included (the sender's own tabs receive the confirmation). All
// recipients except the sender then get fresh unread counts.
func (g *Gateway) Send(ctx context.Context, conversationID, senderID int64, content string) (models.MessageDTO, error) {
	dto, err := g.log.Append(ctx, conversationID, senderID, content)
	if err != nil {
		return models.MessageDTO{}, err
	}

	parts, err := g.participants.ActiveByConversation(ctx, conversationID)
	if err != nil {
		// The message is durable; delivery degrades to polling.
		logrus.WithError(err).WithField("conversation_id", conversationID).
			Warn("message persisted but participant fan-out failed")
		return dto, nil
	}

	event := models.MessageEvent{Type: models.EventMessage, MessageDTO: dto}
	for _, p := range parts {
		g.bus.Publish(p.UserID, event)
	}
	for _, p := range parts {
		if p.UserID == senderID {
			continue
		}
		g.pushUnread(ctx, conversationID, p.UserID)
	}
	return dto, nil
}

// MarkRead moves the caller's read marker, announces the new position to
// every active participant and pushes recomputed unread counts so no badge
// goes stale.
func (g *Gateway) MarkRead(ctx context.Context, conversationID, userID int64) (models.ReadMarkerEvent, error) {
	event, err := g.readState.MarkRead(ctx, conversationID, userID)
	if err != nil {
		return models.ReadMarkerEvent{}, err
	}
	observability.IncReadMarker()

	parts, err := g.participants.ActiveByConversation(ctx, conversationID)
	if err != nil {
		logrus.WithError(err).WithField("conversation_id", conversationID).
			Warn("read marker persisted but fan-out failed")
		return event, nil
	}
	for _, p := range parts {
		g.bus.Publish(p.UserID, event)
	}
	for _, p := range parts {
		g.pushUnread(ctx, conversationID, p.UserID)
	}
	return event, nil
}

// PresenceSnapshot reports the live state of each of the user's friends.
func (g *Gateway) PresenceSnapshot(ctx context.Context, userID int64) (models.PresenceSnapshotEvent, error) {
	friendIDs, err := g.friends.Friends(ctx, userID)
	if err != nil {
		return models.PresenceSnapshotEvent{}, err
	}
	users := make([]models.PresenceEntry, 0, len(friendIDs))
	for _, id := range friendIDs {
		users = append(users, models.PresenceEntry{UserID: id, Online: g.sessions.IsOnline(id)})
	}
	return models.PresenceSnapshotEvent{Type: models.EventPresenceSnapshot, Users: users}, nil
}

// RunPresenceNotifier consumes session transitions and pushes presence
// deltas to the transitioning user's friends. A user coming online also
// receives an initial snapshot. Runs until ctx is cancelled.
func (g *Gateway) RunPresenceNotifier(ctx context.Context) {
	transitions := g.sessions.Transitions()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-transitions:
			g.broadcastPresence(ctx, t)
		}
	}
}

func (g *Gateway) broadcastPresence(ctx context.Context, t PresenceTransition) {
	friendIDs, err := g.friends.Friends(ctx, t.UserID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", t.UserID).
			Warn("presence broadcast skipped, friends lookup failed")
		return
	}
	event := models.PresenceUpdateEvent{Type: models.EventPresenceUpdate, UserID: t.UserID, Online: t.Online}
	for _, id := range friendIDs {
		g.bus.Publish(id, event)
	}
	if t.Online {
		snapshot, err := g.PresenceSnapshot(ctx, t.UserID)
		if err == nil {
			g.bus.Publish(t.UserID, snapshot)
		}
	}
}

// pushUnread recomputes and delivers one participant's counts. Failures
// only cost freshness, never correctness.
func (g *Gateway) pushUnread(ctx context.Context, conversationID, userID int64) {
	unread, err := g.readState.UnreadCount(ctx, conversationID, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("unread recompute failed")
		return
	}
	total, err := g.readState.TotalUnread(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("total unread recompute failed")
		return
	}
	g.bus.Publish(userID, models.UnreadCountEvent{
		Type:             models.EventUnreadCountUpdate,
		ConversationID:   conversationID,
		UnreadCount:      unread,
		TotalUnreadCount: total,
	})
}

// History delegates paged reads to the message log.
func (g *Gateway) History(ctx context.Context, conversationID int64, page, size int) ([]models.MessageDTO, error) {
	return g.log.Page(ctx, conversationID, page, size)
}

// Latest delegates the oldest-first tail read to the message log.
func (g *Gateway) Latest(ctx context.Context, conversationID int64, limit int) ([]models.MessageDTO, error) {
	return g.log.Latest(ctx, conversationID, limit)
}

// ReadState delegates to the tracker.
func (g *Gateway) ReadState(ctx context.Context, conversationID, userID int64) (models.ReadState, error) {
	return g.readState.ReadState(ctx, conversationID, userID)
}

// UnreadCounts delegates to the tracker.
func (g *Gateway) UnreadCounts(ctx context.Context, userID int64) (map[int64]int, int, error) {
	return g.readState.UnreadCounts(ctx, userID)
}
