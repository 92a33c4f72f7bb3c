package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// PingChecker adapts a HealthPinger into a HealthChecker by probing it on an
// interval. The store is the only pinger today.
type PingChecker struct {
	name    string
	pinger  HealthPinger
	timeout time.Duration
	healthy atomic.Int32
	log     zerolog.Logger
}

func NewPingChecker(name string, p HealthPinger, timeout time.Duration, log zerolog.Logger) *PingChecker {
	c := &PingChecker{name: name, pinger: p, timeout: timeout, log: log}
	c.healthy.Store(0)
	return c
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) IsHealthy() bool { return c.healthy.Load() == 1 }

// Start probes until ctx is cancelled. The first probe runs immediately so
// the service does not report DOWN for a full interval after a clean boot.
func (c *PingChecker) Start(ctx context.Context, interval time.Duration) {
	probe := func() {
		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		if err := c.pinger.HealthPing(pctx); err != nil {
			if c.healthy.Swap(0) == 1 {
				c.log.Error().Err(err).Str("component", c.name).Msg("health probe failed")
			}
			return
		}
		if c.healthy.Swap(1) == 0 {
			c.log.Info().Str("component", c.name).Msg("health probe ok")
		}
	}

	probe()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}
