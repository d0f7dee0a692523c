package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// BusRecorder is a notification bus that records every published event so
// tests can assert on fan-out order and recipients.
type BusRecorder struct {
	mu     sync.Mutex
	events []BusEvent
}

type BusEvent struct {
	UserID int64
	Event  any
}

func (b *BusRecorder) Publish(userID int64, event any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, BusEvent{UserID: userID, Event: event})
}

func (b *BusRecorder) Events() []BusEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BusEvent, len(b.events))
	copy(out, b.events)
	return out
}

// ForUser returns the events delivered to one user, in order.
func (b *BusRecorder) ForUser(userID int64) []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []any
	for _, e := range b.events {
		if e.UserID == userID {
			out = append(out, e.Event)
		}
	}
	return out
}
