package scheduler

import (
	"context"
	"time"

	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

// Sweeper periodically closes expired sessions.
type Sweeper struct {
	facade   *Facade
	interval time.Duration
	log      *logger.Logger
}

func NewSweeper(f *Facade, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Sweeper{facade: f, interval: interval, log: log.With("worker", "SessionSweeper")}
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.log.Info("session sweeper started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("session sweeper stopped")
			return nil
		case <-ticker.C:
			res := s.facade.Sweep(ctx)
			if res.Closed > 0 || res.Failed > 0 {
				s.log.Info("session sweep", "closed", res.Closed, "failed", res.Failed, "pruned", res.Pruned)
			}
		}
	}
}
