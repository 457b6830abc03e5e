package login

import (
	"context"
	"errors"
	"testing"

	"github.com/sabarim/kitelogin/internal/browser/browsertest"
	"github.com/sabarim/kitelogin/internal/logger"
	"github.com/stretchr/testify/assert"
)

func newTestTrigger() *Trigger {
	t := fastTimings()
	return NewTrigger(t.TriggerTimeout, t.PollInterval, logger.NewTestLogger())
}

func TestActivate_ContinueText(t *testing.T) {
	agent := browsertest.NewAgent()
	cont := browsertest.NewElement("continue")
	submit := browsertest.NewElement("submit")
	agent.Put(ContinueButton, cont)
	agent.Put(SubmitButton, submit)

	strategy, ok := newTestTrigger().Activate(context.Background(), agent)
	assert.True(t, ok)
	assert.Equal(t, "continue-text", strategy)
	assert.Equal(t, 1, cont.Clicks())
	assert.Zero(t, submit.Clicks())
}

func TestActivate_FallsBackPastUnusableAndBrokenControls(t *testing.T) {
	agent := browsertest.NewAgent()
	hidden := browsertest.NewElement("continue-hidden")
	hidden.Hidden = true
	broken := browsertest.NewElement("continue-broken")
	broken.ClickErr = errors.New("element click intercepted")
	submit := browsertest.NewElement("submit")
	agent.Put(ContinueButton, hidden, broken)
	agent.Put(SubmitButton, submit)

	strategy, ok := newTestTrigger().Activate(context.Background(), agent)
	assert.True(t, ok)
	assert.Equal(t, "submit", strategy)
	assert.Equal(t, 1, submit.Clicks())
}

func TestActivate_AnyButton(t *testing.T) {
	agent := browsertest.NewAgent()
	btn := browsertest.NewElement("button")
	agent.PutAfter(continueStrategies[2].query, 2, btn)

	strategy, ok := newTestTrigger().Activate(context.Background(), agent)
	assert.True(t, ok)
	assert.Equal(t, "any-button", strategy)
	assert.Equal(t, 1, btn.Clicks())
}

func TestActivate_NothingToClick(t *testing.T) {
	strategy, ok := newTestTrigger().Activate(context.Background(), browsertest.NewAgent())
	assert.False(t, ok)
	assert.Empty(t, strategy)
}
