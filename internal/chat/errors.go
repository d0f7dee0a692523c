package chat

import "errors"

// Caller errors surfaced synchronously with no side effect.
var (
	ErrEmptyMessage   = errors.New("message content is empty")
	ErrMessageTooLong = errors.New("message content exceeds limit")
	ErrNotParticipant = errors.New("sender is not an active participant")
	ErrNotDirect      = errors.New("operation defined for direct conversations only")
)

// MaxMessageLength caps message content, counted in runes.
const MaxMessageLength = 2000
