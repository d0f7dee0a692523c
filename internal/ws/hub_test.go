package ws

import "testing"

func TestHubAddAndRemove(t *testing.T) {
	hub := NewHub()

	hub.Add(1, nil, ConnInfo{UserID: 1})
	if len(hub.conns) != 1 {
		t.Fatalf("expected user entry to be created")
	}

	hub.Remove(1, nil)
	if len(hub.conns) != 0 {
		t.Fatalf("expected user entry to be removed")
	}
}

func TestHubRemoveKeepsOtherConnections(t *testing.T) {
	hub := NewHub()

	hub.Add(1, nil, ConnInfo{UserID: 1})
	hub.Remove(2, nil)
	if len(hub.conns) != 1 {
		t.Fatalf("expected unrelated user entry to survive")
	}
}
