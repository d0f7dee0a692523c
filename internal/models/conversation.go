package models

import "time"

// Conversation types.
const (
	ConversationDirect = "DIRECT"
	ConversationGroup  = "GROUP"
)

// Conversation is a message container. DIRECT conversations store their two
// participants as a canonical (min, max) pair so one pair of users maps to
// exactly one conversation.
type Conversation struct {
	ID        int64     `db:"id" json:"id"`
	Type      string    `db:"type" json:"type"`
	UserAID   *int64    `db:"user_a_id" json:"user_a_id,omitempty"`
	UserBID   *int64    `db:"user_b_id" json:"user_b_id,omitempty"`
	Title     *string   `db:"title" json:"title,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Participant is a user's membership record in a conversation. LastReadAt
// is the anchor for all unread computations; nil means the user has never
// read the conversation. DeletedAt hides the conversation for this user
// without destroying history.
type Participant struct {
	ID             int64      `db:"id" json:"id"`
	ConversationID int64      `db:"conversation_id" json:"conversation_id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	JoinedAt       time.Time  `db:"joined_at" json:"joined_at"`
	LastReadAt     *time.Time `db:"last_read_at" json:"last_read_at,omitempty"`
	DeletedAt      *time.Time `db:"deleted_at" json:"-"`
	Muted          bool       `db:"muted" json:"muted"`
	Pinned         bool       `db:"pinned" json:"pinned"`
	Role           *string    `db:"role" json:"role,omitempty"`
}

// Active reports whether the membership is live (not soft-deleted).
func (p Participant) Active() bool {
	return p.DeletedAt == nil
}

// ConversationSummary is the API view of a conversation for one user.
type ConversationSummary struct {
	ConversationID int64     `json:"conversation_id"`
	Type           string    `json:"type"`
	PeerID         *int64    `json:"peer_id,omitempty"`
	Title          *string   `json:"title,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
