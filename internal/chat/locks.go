package chat

import "sync"

const lockStripes = 64

// stripedLock serializes appends per conversation while letting different
// conversations proceed in parallel. Two conversations may share a stripe;
// that only costs contention, never correctness.
type stripedLock struct {
	stripes [lockStripes]sync.Mutex
}

func (l *stripedLock) lock(conversationID int64) *sync.Mutex {
	m := &l.stripes[uint64(conversationID)%lockStripes]
	m.Lock()
	return m
}
