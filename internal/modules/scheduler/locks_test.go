package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

func TestLearnerLocksSerialize(t *testing.T) {
	locks := newLearnerLocks()
	learner := uuid.New()

	unlock, err := locks.Lock(context.Background(), learner)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locks.Lock(ctx, learner); !learning.IsCode(err, learning.CodeStoreTransient) {
		t.Fatalf("expected store_transient while held, got %v", err)
	}

	other, err := locks.Lock(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("other learner blocked: %v", err)
	}
	other()

	acquired := make(chan func())
	go func() {
		u, err := locks.Lock(context.Background(), learner)
		if err != nil {
			return
		}
		acquired <- u
	}()
	select {
	case <-acquired:
		t.Fatalf("lock acquired while held")
	case <-time.After(10 * time.Millisecond):
	}
	unlock()
	select {
	case u := <-acquired:
		u()
	case <-time.After(time.Second):
		t.Fatalf("waiter never acquired the lock")
	}
	if n := locks.size(); n != 0 {
		t.Fatalf("slots leaked: %d", n)
	}
}
