package login

import (
	"context"
	"errors"
	"time"
)

// Timings bounds every wait of a login attempt.
type Timings struct {
	OtpTimeout        time.Duration
	PollInterval      time.Duration
	CharDelay         time.Duration
	TriggerTimeout    time.Duration
	RedirectTimeout   time.Duration
	RedirectInterval  time.Duration
	UserIDTimeout     time.Duration
	SettleDelay       time.Duration
	DashboardTimeout  time.Duration
	HeartbeatInterval time.Duration
}

// DefaultTimings returns the waits used against the live login page.
func DefaultTimings() Timings {
	return Timings{
		OtpTimeout:        18 * time.Second,
		PollInterval:      400 * time.Millisecond,
		CharDelay:         60 * time.Millisecond,
		TriggerTimeout:    5 * time.Second,
		RedirectTimeout:   30 * time.Second,
		RedirectInterval:  500 * time.Millisecond,
		UserIDTimeout:     25 * time.Second,
		SettleDelay:       time.Second,
		DashboardTimeout:  6 * time.Second,
		HeartbeatInterval: defaultHeartbeatInterval,
	}
}

var errWaitTimeout = errors.New("wait timed out")

// poll calls check until it reports done, the timeout elapses or ctx ends.
// check always runs at least once.
func poll(ctx context.Context, timeout, interval time.Duration, check func() bool) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if check() {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return errWaitTimeout
		}
		wait := interval
		if remaining < wait {
			wait = remaining
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// sleep pauses for d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
