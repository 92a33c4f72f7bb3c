package health

import "context"

// HealthPinger is the probe hook a dependency can expose. The SQL stores
// implement it by round-tripping the connection. A nil return means healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
