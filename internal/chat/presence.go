package chat

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// PresenceTransition is emitted when a user crosses the 0<->non-zero
// session boundary. Intermediate counts (second tab opened, one of three
// tabs closed) are not observable outside the registry.
type PresenceTransition struct {
	UserID int64
	Online bool
}

// SessionRegistry counts live connections per user. It is constructed once
// at startup and injected into every connection handler; state lives only
// in memory and is rebuilt from zero on restart.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[int64]int

	transitions chan PresenceTransition
}

// NewSessionRegistry creates an empty registry. Transition events are
// buffered so connection handlers never block on a slow consumer; when the
// buffer is full the event is dropped and counted as lost.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions:    make(map[int64]int),
		transitions: make(chan PresenceTransition, 256),
	}
}

// Transitions exposes the 0<->non-zero edge stream for the presence
// notifier to consume.
func (r *SessionRegistry) Transitions() <-chan PresenceTransition {
	return r.transitions
}

// Connect registers one more live connection for the user and reports
// whether this was the offline->online edge.
func (r *SessionRegistry) Connect(userID int64) bool {
	r.mu.Lock()
	r.sessions[userID]++
	nowOnline := r.sessions[userID] == 1
	r.mu.Unlock()

	if nowOnline {
		r.emit(PresenceTransition{UserID: userID, Online: true})
	}
	return nowOnline
}

// Disconnect drops one live connection and reports whether this was the
// online->offline edge. Disconnecting a user with no sessions is a no-op.
func (r *SessionRegistry) Disconnect(userID int64) bool {
	r.mu.Lock()
	count, ok := r.sessions[userID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	count--
	nowOffline := count <= 0
	if nowOffline {
		delete(r.sessions, userID)
	} else {
		r.sessions[userID] = count
	}
	r.mu.Unlock()

	if nowOffline {
		r.emit(PresenceTransition{UserID: userID, Online: false})
	}
	return nowOffline
}

// IsOnline reports whether the user holds at least one live connection.
func (r *SessionRegistry) IsOnline(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[userID] > 0
}

func (r *SessionRegistry) emit(t PresenceTransition) {
	select {
	case r.transitions <- t:
	default:
		logrus.WithFields(logrus.Fields{"user_id": t.UserID, "online": t.Online}).
			Warn("presence transition dropped, buffer full")
	}
}
