package login

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sabarim/kitelogin/internal/browser/browsertest"
	"github.com/sabarim/kitelogin/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestHeartbeat_DisabledReturnsImmediately(t *testing.T) {
	agent := browsertest.NewAgent()
	Heartbeat(context.Background(), agent, 0, time.Millisecond, logger.NewTestLogger())
	assert.Empty(t, agent.Scripts())
}

func TestHeartbeat_RunsForDuration(t *testing.T) {
	agent := browsertest.NewAgent()
	start := time.Now()

	Heartbeat(context.Background(), agent, 40*time.Millisecond, 5*time.Millisecond, logger.NewTestLogger())

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.NotEmpty(t, agent.Scripts())
	assert.Equal(t, heartbeatScript, agent.Scripts()[0])
}

func TestHeartbeat_SwallowsScriptErrors(t *testing.T) {
	agent := browsertest.NewAgent()
	agent.ScriptErr = errors.New("target closed")
	log := logger.NewTestLogger()

	Heartbeat(context.Background(), agent, 30*time.Millisecond, 5*time.Millisecond, log)

	assert.True(t, log.HasMessage("debug", "heartbeat failed"))
}

func TestHeartbeat_ForeverStopsOnCancel(t *testing.T) {
	agent := browsertest.NewAgent()
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	done := make(chan struct{})
	go func() {
		Heartbeat(ctx, agent, Forever, 5*time.Millisecond, logger.NewTestLogger())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat did not stop after cancel")
	}
	assert.NotEmpty(t, agent.Scripts())
}

func TestHeartbeat_NonPositiveIntervalFallsBack(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		agent := browsertest.NewAgent()
		assert.NotPanics(t, func() {
			Heartbeat(context.Background(), agent, 20*time.Millisecond, interval, logger.NewTestLogger())
		})
		assert.Empty(t, agent.Scripts())
	}
}
