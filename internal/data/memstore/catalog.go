package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/data/store"
	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/clock"
)

// Challenges is a ChallengeCatalog keyed by day. Days without entries fall
// back to Fallback when it is set.
type Challenges struct {
	mu       sync.RWMutex
	byDay    map[time.Time][]learning.DailyChallenge
	Fallback func(date time.Time) []learning.DailyChallenge
}

var _ store.ChallengeCatalog = (*Challenges)(nil)

func NewChallenges(fallback func(time.Time) []learning.DailyChallenge) *Challenges {
	return &Challenges{byDay: map[time.Time][]learning.DailyChallenge{}, Fallback: fallback}
}

func (c *Challenges) Put(chs ...learning.DailyChallenge) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range chs {
		day := clock.Date(ch.Date)
		ch.Date = day
		c.byDay[day] = append(c.byDay[day], ch)
	}
}

func (c *Challenges) ActiveFor(ctx context.Context, date time.Time) ([]learning.DailyChallenge, error) {
	day := clock.Date(date)
	c.mu.RLock()
	chs, ok := c.byDay[day]
	c.mu.RUnlock()
	if ok {
		return append([]learning.DailyChallenge(nil), chs...), nil
	}
	if c.Fallback != nil {
		return c.Fallback(day), nil
	}
	return nil, nil
}

type Boosts struct {
	mu     sync.RWMutex
	boosts []learning.Boost
}

var _ store.BoostSource = (*Boosts)(nil)

func NewBoosts(boosts ...learning.Boost) *Boosts {
	return &Boosts{boosts: append([]learning.Boost(nil), boosts...)}
}

func (b *Boosts) Add(boost learning.Boost) {
	b.mu.Lock()
	b.boosts = append(b.boosts, boost)
	b.mu.Unlock()
}

func (b *Boosts) ActiveBoosts(ctx context.Context, learnerID uuid.UUID, at time.Time) ([]learning.Boost, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []learning.Boost
	for _, boost := range b.boosts {
		if boost.LearnerID == learnerID && boost.Covers(at) {
			out = append(out, boost)
		}
	}
	return out, nil
}
