// Package health tracks dependency liveness so the HTTP surface and the
// startup sequence can gate on a single flag.
package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by per-dependency checkers. The store is the
// primary dependency today; the completion provider is probed lazily on use.
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker folds the dependency checkers into one service-level
// health flag, logging only on transitions.
type ServiceHealthChecker struct {
	healthy atomic.Bool
	checks  []HealthChecker
	log     zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, checks ...HealthChecker) *ServiceHealthChecker {
	return &ServiceHealthChecker{checks: checks, log: log}
}

// IsHealthy returns the cached aggregate without touching dependencies.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.healthy.Load() }

// Start re-evaluates the aggregate on the given interval until ctx is done.
// The first evaluation runs immediately.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	wasHealthy := false
	eval := func() {
		var down []string
		for _, c := range h.checks {
			if !c.IsHealthy() {
				down = append(down, c.Name())
			}
		}
		ok := len(down) == 0
		h.healthy.Store(ok)
		if ok == wasHealthy {
			return
		}
		wasHealthy = ok
		if ok {
			h.log.Info().Msg("service health: UP")
		} else {
			h.log.Error().Strs("unhealthy", down).Msg("service health: DOWN")
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}
