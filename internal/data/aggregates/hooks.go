package aggregates

import (
	"strings"
	"time"

	"github.com/yungbote/lexdrill-backend/internal/observability"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

// Hooks receives one signal per store transaction.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type metricsHooks struct {
	metrics *observability.Metrics
}

func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return metricsHooks{metrics: metrics}
}

func (h metricsHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.metrics.ObserveStoreOperation(strings.TrimSpace(name), strings.TrimSpace(status), dur)
}

func (h metricsHooks) IncConflict(name string) { h.metrics.IncStoreConflict(strings.TrimSpace(name)) }
func (h metricsHooks) IncRetry(name string)    { h.metrics.IncStoreRetry(strings.TrimSpace(name)) }

// logHooks warns on failed and slow transactions.
type logHooks struct {
	log  *logger.Logger
	slow time.Duration
}

// NewLogHooks logs failed transactions, and successful ones slower than slow
// when slow > 0.
func NewLogHooks(log *logger.Logger, slow time.Duration) Hooks {
	if log == nil {
		return noopHooks{}
	}
	return logHooks{log: log.With("component", "LearnerStore"), slow: slow}
}

func (h logHooks) ObserveOperation(name, status string, dur time.Duration) {
	switch {
	case status != "success":
		h.log.Warn("store transaction failed", "op", name, "status", status, "duration_ms", dur.Milliseconds())
	case h.slow > 0 && dur >= h.slow:
		h.log.Warn("slow store transaction", "op", name, "duration_ms", dur.Milliseconds())
	}
}

func (h logHooks) IncConflict(name string) { h.log.Debug("store lock conflict", "op", name) }
func (h logHooks) IncRetry(name string)    {}

type multiHooks []Hooks

// MultiHooks fans every signal out to each non-nil h.
func MultiHooks(hooks ...Hooks) Hooks {
	out := make(multiHooks, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

func (m multiHooks) ObserveOperation(name, status string, dur time.Duration) {
	for _, h := range m {
		h.ObserveOperation(name, status, dur)
	}
}

func (m multiHooks) IncConflict(name string) {
	for _, h := range m {
		h.IncConflict(name)
	}
}

func (m multiHooks) IncRetry(name string) {
	for _, h := range m {
		h.IncRetry(name)
	}
}
