package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name string
	up   atomic.Bool
}

func (s *stubChecker) Name() string                         { return s.name }
func (s *stubChecker) IsHealthy() bool                      { return s.up.Load() }
func (s *stubChecker) Start(context.Context, time.Duration) {}

func waitFor(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestServiceHealthFollowsDependencies(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &stubChecker{name: "store"}
	store.up.Store(true)

	svc := NewServiceHealthChecker(zerolog.Nop(), store)
	go svc.Start(ctx, 10*time.Millisecond)

	waitFor(t, svc.IsHealthy)

	store.up.Store(false)
	waitFor(t, func() bool { return !svc.IsHealthy() })

	store.up.Store(true)
	waitFor(t, svc.IsHealthy)
}

func TestServiceHealthStartsDown(t *testing.T) {
	store := &stubChecker{name: "store"}
	svc := NewServiceHealthChecker(zerolog.Nop(), store)
	require.False(t, svc.IsHealthy())
}

type flakyPinger struct {
	fail atomic.Bool
}

func (p *flakyPinger) HealthPing(context.Context) error {
	if p.fail.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestPingCheckerRecovers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pinger := &flakyPinger{}
	pinger.fail.Store(true)

	c := NewPingChecker("store", pinger, time.Second, zerolog.Nop())
	go c.Start(ctx, 10*time.Millisecond)

	waitFor(t, func() bool { return !c.IsHealthy() })

	pinger.fail.Store(false)
	waitFor(t, c.IsHealthy)
	require.Equal(t, "store", c.Name())
}
