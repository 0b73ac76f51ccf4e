package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/lexdrill-backend/internal/data/aggregates"
)

// HookLog records aggregate hook signals keyed by operation.
type HookLog struct {
	mu        sync.Mutex
	statuses  map[string][]string
	conflicts map[string]int
	retries   map[string]int
}

var _ aggregates.Hooks = (*HookLog)(nil)

func NewHookLog() *HookLog {
	return &HookLog{
		statuses:  map[string][]string{},
		conflicts: map[string]int{},
		retries:   map[string]int{},
	}
}

func (h *HookLog) ObserveOperation(name, status string, _ time.Duration) {
	h.mu.Lock()
	h.statuses[name] = append(h.statuses[name], status)
	h.mu.Unlock()
}

func (h *HookLog) IncConflict(name string) {
	h.mu.Lock()
	h.conflicts[name]++
	h.mu.Unlock()
}

func (h *HookLog) IncRetry(name string) {
	h.mu.Lock()
	h.retries[name]++
	h.mu.Unlock()
}

// Statuses returns the outcome of every observed run of op, oldest first.
func (h *HookLog) Statuses(op string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.statuses[op]...)
}

func (h *HookLog) Conflicts(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conflicts[op]
}

func (h *HookLog) Retries(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.retries[op]
}
