package login

import (
	"context"
	"time"

	"github.com/sabarim/kitelogin/internal/browser"
	"github.com/sabarim/kitelogin/internal/logger"
)

type triggerStrategy struct {
	name  string
	query browser.Query
}

// ContinueButton matches a button whose text contains "continue" in any case.
var ContinueButton = browser.Query{
	By:    browser.ByXPath,
	Value: `//button[contains(translate(normalize-space(.), 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), 'continue')]`,
}

var continueStrategies = []triggerStrategy{
	{name: "continue-text", query: ContinueButton},
	{name: "submit", query: SubmitButton},
	{name: "any-button", query: browser.Query{By: browser.ByTag, Value: "button"}},
}

// Trigger clicks the control that advances the flow after OTP entry.
// Many OTP widgets auto-submit, so not finding one is normal.
type Trigger struct {
	strategies []triggerStrategy
	timeout    time.Duration
	interval   time.Duration
	logger     logger.Logger
}

// NewTrigger creates a trigger that keeps looking for up to timeout.
func NewTrigger(timeout, interval time.Duration, log logger.Logger) *Trigger {
	return &Trigger{
		strategies: continueStrategies,
		timeout:    timeout,
		interval:   interval,
		logger:     log,
	}
}

// Activate clicks at most one control and reports which strategy clicked it.
func (t *Trigger) Activate(ctx context.Context, agent browser.Agent) (string, bool) {
	var winner string
	err := poll(ctx, t.timeout, t.interval, func() bool {
		for _, s := range t.strategies {
			if ctx.Err() != nil {
				return false
			}
			if t.click(ctx, agent, s) {
				winner = s.name
				return true
			}
		}
		return false
	})
	if err != nil {
		return "", false
	}
	return winner, true
}

func (t *Trigger) click(ctx context.Context, agent browser.Agent, s triggerStrategy) bool {
	els, err := agent.FindElements(ctx, s.query)
	if err != nil {
		t.logger.Debug(ctx, "continue strategy query failed", map[string]interface{}{
			"strategy": s.name,
			"error":    err.Error(),
		})
		return false
	}

	for _, el := range browser.FilterUsable(els) {
		if err := el.Click(); err != nil {
			t.logger.Debug(ctx, "continue click failed", map[string]interface{}{
				"strategy": s.name,
				"error":    err.Error(),
			})
			continue
		}
		return true
	}
	return false
}
