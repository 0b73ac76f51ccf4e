// Package memstore holds in-memory implementations of the store contracts.
// They back tests and the DATABASE_DRIVER=memory mode.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/data/store"
	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

type Items struct {
	mu    sync.RWMutex
	items map[uuid.UUID]learning.Item
}

var _ store.ItemStore = (*Items)(nil)

func NewItems(items ...learning.Item) *Items {
	s := &Items{items: map[uuid.UUID]learning.Item{}}
	s.Put(items...)
	return s
}

func (s *Items) Put(items ...learning.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		it.Prerequisites = append([]uuid.UUID(nil), it.Prerequisites...)
		s.items[it.ID] = it
	}
}

func (s *Items) Get(ctx context.Context, id uuid.UUID) (learning.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return learning.Item{}, fmt.Errorf("item %s: %w", id, store.ErrItemNotFound)
	}
	return it, nil
}

func (s *Items) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]learning.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]learning.Item, len(ids))
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (s *Items) Candidates(ctx context.Context, q store.ItemQuery) ([]learning.Item, error) {
	exclude := make(map[uuid.UUID]struct{}, len(q.Exclude))
	for _, id := range q.Exclude {
		exclude[id] = struct{}{}
	}
	s.mu.RLock()
	out := make([]learning.Item, 0, len(s.items))
	for _, it := range s.items {
		if it.SubjectID != q.SubjectID {
			continue
		}
		if q.TopicID != "" && it.TopicID != q.TopicID {
			continue
		}
		if it.Premium && !q.AllowPremium {
			continue
		}
		if _, skip := exclude[it.ID]; skip {
			continue
		}
		out = append(out, it)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0 })
	return out, nil
}
