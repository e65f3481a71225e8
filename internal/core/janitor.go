package core

// janitor.go evicts editor sessions nobody has touched for a while.
//
// Sessions live in memory only, so a browser tab that is closed without
// calling DELETE would keep its grid forever. The janitor runs on a ticker
// until its context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// StartJanitor evicts sessions idle for longer than idle, checking every
// interval. It blocks until ctx is cancelled.
func (s *Service) StartJanitor(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		slog.Info("session janitor disabled")
		return
	}
	slog.Info("session janitor started",
		"interval", interval.String(),
		"idle_timeout", idle.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			if n := s.evictIdle(idle); n > 0 {
				slog.Info("evicted idle sessions", "sessions", n, "remaining", s.SessionCount())
			}
		}
	}
}

// evictIdle closes every session last used more than idle ago.
func (s *Service) evictIdle(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.RLock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	n := 0
	for _, id := range expired {
		if err := s.CloseSession(id); err == nil {
			n++
		}
	}
	return n
}
