package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// RuntimeCheck fails when the goroutine count exceeds maxGoroutines or a
// recent GC pause exceeds maxPause. Zero disables either limit.
func RuntimeCheck(maxGoroutines int, maxPause time.Duration) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); maxGoroutines > 0 && n > maxGoroutines {
			return errors.Errorf("goroutine count %d exceeds %d", n, maxGoroutines)
		}
		if maxPause <= 0 {
			return nil
		}
		var stats debug.GCStats
		debug.ReadGCStats(&stats)
		for _, p := range stats.Pause {
			if p > maxPause {
				return errors.Errorf("gc pause %s exceeds %s", p, maxPause)
			}
		}
		return nil
	}
}

// Pinger is satisfied by connection pools such as pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck wraps a Pinger as a readiness check.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}
