package login

import (
	"context"
	"time"

	"github.com/sabarim/kitelogin/internal/browser"
	"github.com/sabarim/kitelogin/internal/logger"
)

// fieldStrategy is one way of finding OTP inputs on the page.
type fieldStrategy struct {
	name  string
	query browser.Query
	// min is the number of usable matches required for the strategy to win.
	min int
	// firstOnly keeps just the first usable match.
	firstOnly bool
}

// TotpField is the single OTP input of the current Kite twofa page.
var TotpField = browser.Query{By: browser.ByID, Value: "totp"}

var otpStrategies = []fieldStrategy{
	{name: "id:totp", query: TotpField, min: 1, firstOnly: true},
	{name: "id:pin", query: browser.Query{By: browser.ByID, Value: "pin"}, min: 1, firstOnly: true},
	{
		name:  "split-digits",
		query: browser.Query{By: browser.ByXPath, Value: `//input[@maxlength='1' and (@inputmode='numeric' or contains(@class,'otp') or contains(@class,'digit'))]`},
		min:   2,
	},
	{
		name:  "numeric-input",
		query: browser.Query{By: browser.ByXPath, Value: `//input[@inputmode='numeric' or @type='tel' or @type='number']`},
		min:   1,
	},
	{
		name:  "password-input",
		query: browser.Query{By: browser.ByXPath, Value: `//input[@type='password']`},
		min:   1,
	},
}

// Locator finds the OTP input field(s) on a page that may still be rendering.
type Locator struct {
	strategies []fieldStrategy
	timeout    time.Duration
	interval   time.Duration
	logger     logger.Logger
}

// NewLocator creates a locator polling every interval until timeout.
func NewLocator(timeout, interval time.Duration, log logger.Logger) *Locator {
	return &Locator{
		strategies: otpStrategies,
		timeout:    timeout,
		interval:   interval,
		logger:     log,
	}
}

// Locate returns the OTP fields of the first strategy that matches, in DOM
// order, and the strategy name. When nothing matches before the timeout it
// returns an empty set and no error; only ctx ending yields an error.
func (l *Locator) Locate(ctx context.Context, agent browser.Agent) ([]browser.Element, string, error) {
	var (
		fields []browser.Element
		winner string
	)

	err := poll(ctx, l.timeout, l.interval, func() bool {
		for _, s := range l.strategies {
			if ctx.Err() != nil {
				return false
			}
			found, ok := l.try(ctx, agent, s)
			if ok {
				fields, winner = found, s.name
				return true
			}
		}
		return false
	})
	if err == errWaitTimeout {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return fields, winner, nil
}

func (l *Locator) try(ctx context.Context, agent browser.Agent, s fieldStrategy) ([]browser.Element, bool) {
	els, err := agent.FindElements(ctx, s.query)
	if err != nil {
		l.logger.Debug(ctx, "otp strategy query failed", map[string]interface{}{
			"strategy": s.name,
			"error":    err.Error(),
		})
		return nil, false
	}

	usable := browser.FilterUsable(els)
	if len(usable) < s.min {
		return nil, false
	}
	if s.firstOnly {
		usable = usable[:1]
	}
	return usable, true
}
