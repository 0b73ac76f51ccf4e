// Package events fans scheduler events out to named subscribers.
package events

import (
	"context"
	"sort"
	"sync"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

// Sink receives events after the writes that produced them have committed.
type Sink interface {
	Publish(ctx context.Context, evt learning.Event) error
}

// SinkFunc adapts a callback to a Sink.
type SinkFunc func(ctx context.Context, evt learning.Event) error

func (f SinkFunc) Publish(ctx context.Context, evt learning.Event) error { return f(ctx, evt) }

// Bus delivers each event to every subscriber in subscription order. A failing
// subscriber is logged and does not stop delivery to the others.
type Bus struct {
	log *logger.Logger

	mu   sync.RWMutex
	seq  int
	subs map[string]subscription
}

type subscription struct {
	seq  int
	sink Sink
}

func NewBus(log *logger.Logger) *Bus {
	if log == nil {
		log = logger.Nop()
	}
	return &Bus{log: log.With("service", "SchedulerEventBus"), subs: map[string]subscription{}}
}

// Subscribe registers sink under name, replacing any sink already using it.
func (b *Bus) Subscribe(name string, sink Sink) {
	if sink == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.subs[name] = subscription{seq: b.seq, sink: sink}
}

func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	delete(b.subs, name)
	b.mu.Unlock()
}

// Publish delivers evts in order.
func (b *Bus) Publish(ctx context.Context, evts ...learning.Event) {
	if b == nil || len(evts) == 0 {
		return
	}
	type named struct {
		name string
		subscription
	}
	b.mu.RLock()
	subs := make([]named, 0, len(b.subs))
	for name, s := range b.subs {
		subs = append(subs, named{name: name, subscription: s})
	}
	b.mu.RUnlock()
	sort.Slice(subs, func(i, j int) bool { return subs[i].seq < subs[j].seq })

	for _, evt := range evts {
		for _, s := range subs {
			if err := s.sink.Publish(ctx, evt); err != nil {
				b.log.Warn("event delivery failed",
					"subscriber", s.name,
					"event", evt.EventType(),
					"learner_id", evt.Learner().String(),
					"error", err,
				)
			}
		}
	}
}
