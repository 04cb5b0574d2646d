package relay

import (
	"context"
	"time"
)

const defaultSweepInterval = time.Minute

// StartSweeper runs the disallow sweep on an interval until the context is
// cancelled. Returns immediately; the returned channel closes when the loop
// exits.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if s == nil {
		close(done)
		return done
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.SweepDisallow(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					s.logger.Error("disallow sweep failed", "error", err)
					continue
				}
				if removed > 0 {
					s.logger.Debug("disallow sweep removed records", "count", removed)
				}
			}
		}
	}()
	return done
}
