package models

import "time"

// Event types pushed over a user's private websocket channel.
const (
	EventMessage           = "MESSAGE"
	EventRead              = "READ"
	EventUnreadCountUpdate = "UNREAD_COUNT_UPDATE"
	EventPresenceUpdate    = "PRESENCE_UPDATE"
	EventPresenceSnapshot  = "PRESENCE_SNAPSHOT"
)

// MessageEvent delivers a freshly appended message to a participant. The
// message fields sit flat beside the type discriminator on the wire.
type MessageEvent struct {
	Type string `json:"type"`
	MessageDTO
}

// ReadMarkerEvent announces a participant's new read position.
type ReadMarkerEvent struct {
	Type           string    `json:"type"`
	ConversationID int64     `json:"conversationId"`
	ReaderUserID   int64     `json:"readerUserId"`
	LastReadAt     time.Time `json:"lastReadAt"`
}

// UnreadCountEvent keeps a participant's badge counts in sync.
type UnreadCountEvent struct {
	Type             string `json:"type"`
	ConversationID   int64  `json:"conversationId"`
	UnreadCount      int    `json:"unreadCount"`
	TotalUnreadCount int    `json:"totalUnreadCount"`
}

// PresenceUpdateEvent is pushed on 0<->non-zero session transitions.
type PresenceUpdateEvent struct {
	Type   string `json:"type"`
	UserID int64  `json:"userId"`
	Online bool   `json:"online"`
}

// PresenceEntry is one user's state inside a snapshot.
type PresenceEntry struct {
	UserID int64 `json:"userId"`
	Online bool  `json:"online"`
}

// PresenceSnapshotEvent reports the live state of a user's friends.
type PresenceSnapshotEvent struct {
	Type  string          `json:"type"`
	Users []PresenceEntry `json:"users"`
}

// ReadState is the two-sided read position of a DIRECT conversation from
// one participant's point of view.
type ReadState struct {
	MyLastReadAt         *time.Time `json:"myLastReadAt"`
	PeerLastReadAt       *time.Time `json:"peerLastReadAt"`
	PeerUserID           int64      `json:"peerUserId"`
	LastSeenOwnMessageID *int64     `json:"lastSeenOwnMessageId"`
}
