package notify

// Bus delivers events to a user's connected clients. Delivery is
// best-effort: implementations must never block the caller indefinitely or
// surface delivery failures back to write paths. Persistence, not delivery,
// is the durability boundary.
type Bus interface {
	Publish(userID int64, event any)
}

// Noop discards every event. Used when no transport is attached.
type Noop struct{}

func (Noop) Publish(userID int64, event any) {}
