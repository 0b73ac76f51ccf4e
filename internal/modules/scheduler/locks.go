package scheduler

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

// learnerLocks is a keyed single-slot mutex. Slots are refcounted and dropped
// once nobody holds or waits on them.
type learnerLocks struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*learnerSlot
}

type learnerSlot struct {
	ch   chan struct{}
	refs int
}

func newLearnerLocks() *learnerLocks {
	return &learnerLocks{slots: map[uuid.UUID]*learnerSlot{}}
}

// Lock blocks until the learner's slot is free or ctx is done. The returned
// func releases the slot.
func (l *learnerLocks) Lock(ctx context.Context, learnerID uuid.UUID) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[learnerID]
	if !ok {
		slot = &learnerSlot{ch: make(chan struct{}, 1)}
		l.slots[learnerID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		return func() {
			<-slot.ch
			l.release(learnerID, slot)
		}, nil
	case <-ctx.Done():
		l.release(learnerID, slot)
		return nil, learning.NewError(learning.CodeStoreTransient, "scheduler.lock", "gave up waiting for learner lock", ctx.Err())
	}
}

func (l *learnerLocks) release(learnerID uuid.UUID, slot *learnerSlot) {
	l.mu.Lock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, learnerID)
	}
	l.mu.Unlock()
}

func (l *learnerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
