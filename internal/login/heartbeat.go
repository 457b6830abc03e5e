package login

import (
	"context"
	"time"

	"github.com/sabarim/kitelogin/internal/browser"
	"github.com/sabarim/kitelogin/internal/logger"
)

const (
	heartbeatScript          = `window.scrollBy(0,1); window.scrollBy(0,-1);`
	defaultHeartbeatInterval = 30 * time.Second
)

// Heartbeat keeps the session page active for d, nudging it every interval.
// d == 0 returns at once; Forever runs until ctx is cancelled. A non-positive
// interval falls back to 30 seconds.
func Heartbeat(ctx context.Context, agent browser.Agent, d, interval time.Duration, log logger.Logger) {
	if d == 0 {
		return
	}

	var expired <-chan time.Time
	if d != Forever {
		timer := time.NewTimer(d)
		defer timer.Stop()
		expired = timer.C
	}

	if interval <= 0 {
		interval = defaultHeartbeatInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-expired:
			return
		case <-ticker.C:
			if err := agent.ExecuteScript(ctx, heartbeatScript); err != nil {
				log.Debug(ctx, "heartbeat failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}
