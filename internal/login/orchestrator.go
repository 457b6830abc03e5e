// Package login drives one brokerage account through the browser login
// flow and turns it into a Result.
package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sabarim/kitelogin/internal/accounts"
	"github.com/sabarim/kitelogin/internal/browser"
	"github.com/sabarim/kitelogin/internal/diagnostics"
	"github.com/sabarim/kitelogin/internal/logger"
)

// Selectors of the Kite login pages.
var (
	UserIDField     = browser.Query{By: browser.ByID, Value: "userid"}
	PasswordField   = browser.Query{By: browser.ByID, Value: "password"}
	SubmitButton    = browser.Query{By: browser.ByCSS, Value: `button[type="submit"]`}
	DashboardMarker = browser.Query{
		By:    browser.ByXPath,
		Value: `//*[contains(@class,'profile') or contains(@class,'user-id') or contains(text(),'Positions') or contains(text(),'Holdings')]`,
	}
)

// TokenExchanger turns a request token into an access token.
type TokenExchanger interface {
	LoginURL() string
	Exchange(ctx context.Context, requestToken string) (string, error)
}

// TokenStore persists access tokens per account.
type TokenStore interface {
	Store(accountID, token string) error
}

// Notifier delivers best-effort operator messages.
type Notifier interface {
	Notify(ctx context.Context, subject, body string)
}

// Recorder captures a screenshot and returns its path, or "" on failure.
type Recorder interface {
	Capture(ctx context.Context, s diagnostics.Screenshotter, accountID, reason string) string
}

// Dependencies are the collaborators of an Orchestrator.
type Dependencies struct {
	Agents    browser.Factory
	Exchanger TokenExchanger
	Store     TokenStore
	Notifier  Notifier
	Recorder  Recorder
	Passcodes PasscodeGenerator
}

// Options tune an Orchestrator.
type Options struct {
	Timings Timings
	// KeepAlive is how long the session page is kept active after success.
	// Zero disables it and Forever never expires.
	KeepAlive time.Duration
	// LeaveOpen skips closing the browser after the attempt.
	LeaveOpen bool
}

// Orchestrator runs the login state machine for one account at a time.
type Orchestrator struct {
	deps     Dependencies
	opts     Options
	locator  *Locator
	injector *Injector
	trigger  *Trigger
	poller   *Poller
	logger   logger.Logger
	now      func() time.Time
}

// NewOrchestrator wires the login steps from deps and opts.
func NewOrchestrator(deps Dependencies, opts Options, log logger.Logger) *Orchestrator {
	t := opts.Timings
	return &Orchestrator{
		deps:     deps,
		opts:     opts,
		locator:  NewLocator(t.OtpTimeout, t.PollInterval, log),
		injector: NewInjector(t.CharDelay, log),
		trigger:  NewTrigger(t.TriggerTimeout, t.PollInterval, log),
		poller:   NewPoller(t.RedirectTimeout, t.RedirectInterval),
		logger:   log,
		now:      time.Now,
	}
}

// attempt holds the state of a single account login.
type attempt struct {
	o     *Orchestrator
	cred  accounts.Credential
	agent browser.Agent
	state State
	log   logger.Logger
}

// Login performs the full flow for cred and always returns exactly one Result.
func (o *Orchestrator) Login(ctx context.Context, cred accounts.Credential) Result {
	a := &attempt{
		o:     o,
		cred:  cred,
		state: StateStart,
		log:   o.logger.WithField("account_id", cred.UserID),
	}
	a.log.Info(ctx, "login started", nil)

	agent, err := o.deps.Agents(ctx)
	if err != nil {
		return a.fail(ctx, ReasonBrowserLaunch, fmt.Errorf("launch browser: %w", err))
	}
	a.agent = agent
	defer a.release(ctx)

	res := a.run(ctx)
	if res.Succeeded() {
		Heartbeat(ctx, agent, o.opts.KeepAlive, o.opts.Timings.HeartbeatInterval, a.log)
	}
	return res
}

func (a *attempt) run(ctx context.Context) Result {
	if res, ok := a.submitCredentials(ctx); !ok {
		return res
	}
	a.transition(ctx, StateCredentialsSubmitted)

	fields, strategy, err := a.o.locator.Locate(ctx, a.agent)
	if err != nil {
		return a.fail(ctx, ReasonCancelled, err)
	}
	if len(fields) == 0 {
		return a.fail(ctx, ReasonOtpNotFound, fmt.Errorf("%w: otp input", ErrElementNotFound))
	}
	a.log.Info(ctx, "otp fields located", map[string]interface{}{
		"strategy": strategy,
		"fields":   len(fields),
	})
	a.transition(ctx, StateOtpLocated)

	code, err := a.o.deps.Passcodes.Generate(a.cred.TOTPSecret, a.o.now())
	if err != nil {
		return a.fail(ctx, ReasonOtpGeneration, fmt.Errorf("%w: generate totp: %v", ErrInjectionFailure, err))
	}
	if err := a.o.injector.Enter(ctx, code, fields); err != nil {
		return a.fail(ctx, ReasonOtpEntry, err)
	}
	a.transition(ctx, StateOtpEntered)

	if winner, ok := a.o.trigger.Activate(ctx, a.agent); ok {
		a.log.Debug(ctx, "continue control clicked", map[string]interface{}{"strategy": winner})
	} else {
		a.log.Debug(ctx, "no continue control clicked", nil)
	}
	a.transition(ctx, StateContinuationTriggered)

	art, err := a.o.poller.Poll(ctx, a.agent)
	if err != nil {
		return a.fail(ctx, ReasonCancelled, err)
	}
	if art.RequestToken == "" {
		return a.checkDashboard(ctx, art)
	}
	a.log.Info(ctx, "request token captured", map[string]interface{}{"status": art.Status})

	return a.exchangeAndStore(ctx, art)
}

func (a *attempt) submitCredentials(ctx context.Context) (Result, bool) {
	loginURL := a.o.deps.Exchanger.LoginURL()
	if err := a.agent.Navigate(ctx, loginURL); err != nil {
		return a.fail(ctx, ReasonLoginPage, fmt.Errorf("navigate to login page: %w", err)), false
	}

	userID, err := a.waitFor(ctx, UserIDField, a.o.opts.Timings.UserIDTimeout)
	if err != nil {
		return a.fail(ctx, ReasonUserIDNotFound, err), false
	}
	if err := typeInto(userID, a.cred.UserID); err != nil {
		return a.fail(ctx, ReasonCredentialEntry, err), false
	}

	password, err := a.waitFor(ctx, PasswordField, a.o.opts.Timings.UserIDTimeout)
	if err != nil {
		return a.fail(ctx, ReasonPasswordNotFound, err), false
	}
	if err := typeInto(password, a.cred.Password); err != nil {
		return a.fail(ctx, ReasonCredentialEntry, err), false
	}

	submit, err := a.waitFor(ctx, SubmitButton, a.o.opts.Timings.TriggerTimeout)
	if err != nil {
		return a.fail(ctx, ReasonSubmitNotFound, err), false
	}
	if err := submit.Click(); err != nil {
		return a.fail(ctx, ReasonCredentialEntry, fmt.Errorf("%w: submit: %v", ErrInjectionFailure, err)), false
	}

	if err := sleep(ctx, a.o.opts.Timings.SettleDelay); err != nil {
		return a.fail(ctx, ReasonCancelled, err), false
	}
	return Result{}, true
}

func (a *attempt) checkDashboard(ctx context.Context, art Artifact) Result {
	if _, err := a.waitFor(ctx, DashboardMarker, a.o.opts.Timings.DashboardTimeout); err != nil {
		if ctx.Err() != nil {
			return a.fail(ctx, ReasonCancelled, err)
		}
		return a.fail(ctx, ReasonNoTokenNoDashboard,
			fmt.Errorf("%w: no request token at %q and no dashboard", ErrElementNotFound, art.FinalURL))
	}

	a.transition(ctx, StateDashboardReached)
	path := a.o.deps.Recorder.Capture(ctx, a.agent, a.cred.UserID, "dashboard_without_token")
	a.log.Warn(ctx, "dashboard reached without request token, check the app redirect url", map[string]interface{}{
		"final_url":  art.FinalURL,
		"screenshot": path,
	})

	return Result{
		AccountID:     a.cred.UserID,
		Outcome:       OutcomeSuccess,
		ArtifactPath:  path,
		Indeterminate: true,
		Err:           ErrIndeterminateSuccess,
	}
}

func (a *attempt) exchangeAndStore(ctx context.Context, art Artifact) Result {
	token, err := a.o.deps.Exchanger.Exchange(ctx, art.RequestToken)
	if err != nil {
		return a.fail(ctx, ReasonExchange, fmt.Errorf("%w: %v", ErrExchangeFailure, err))
	}
	if token == "" {
		return a.fail(ctx, ReasonExchange, fmt.Errorf("%w: empty access token", ErrExchangeFailure))
	}
	a.transition(ctx, StateTokenCaptured)

	if err := a.o.deps.Store.Store(a.cred.UserID, token); err != nil {
		return a.fail(ctx, ReasonPersistence, fmt.Errorf("%w: %v", ErrPersistenceFailure, err))
	}

	a.log.Info(ctx, "login succeeded", map[string]interface{}{"access_token": mask(token)})
	a.o.deps.Notifier.Notify(ctx,
		fmt.Sprintf("Kite token updated for %s", a.cred.UserID),
		fmt.Sprintf("Access token for %s was refreshed at %s.", a.cred.UserID, a.o.now().Format(time.RFC3339)))

	return Result{
		AccountID:   a.cred.UserID,
		Outcome:     OutcomeSuccess,
		AccessToken: token,
	}
}

// waitFor polls for the first usable element matching q.
func (a *attempt) waitFor(ctx context.Context, q browser.Query, timeout time.Duration) (browser.Element, error) {
	var found browser.Element
	err := poll(ctx, timeout, a.o.opts.Timings.PollInterval, func() bool {
		els, err := a.agent.FindElements(ctx, q)
		if err != nil {
			a.log.Debug(ctx, "element query failed", map[string]interface{}{
				"query": q.By.String() + ":" + q.Value,
				"error": err.Error(),
			})
			return false
		}
		if usable := browser.FilterUsable(els); len(usable) > 0 {
			found = usable[0]
			return true
		}
		return false
	})
	if errors.Is(err, errWaitTimeout) {
		return nil, fmt.Errorf("%w: %s %q", ErrElementNotFound, q.By, q.Value)
	}
	return found, err
}

func (a *attempt) transition(ctx context.Context, next State) {
	a.log.Info(ctx, "login state changed", map[string]interface{}{
		"from": string(a.state),
		"to":   string(next),
	})
	a.state = next
}

// fail records a Failed result. Cancellation wins over the given reason
// and skips the screenshot and notification.
func (a *attempt) fail(ctx context.Context, reason string, err error) Result {
	res := Result{
		AccountID:     a.cred.UserID,
		Outcome:       OutcomeFailure,
		FailureReason: reason,
		Err:           err,
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.FailureReason = ReasonCancelled
		res.Err = ctxErr
		a.transition(ctx, StateFailed)
		a.log.Warn(ctx, "login cancelled", map[string]interface{}{"error": ctxErr.Error()})
		return res
	}

	a.transition(ctx, StateFailed)
	if a.agent != nil {
		res.ArtifactPath = a.o.deps.Recorder.Capture(ctx, a.agent, a.cred.UserID, reason)
	}
	a.log.Error(ctx, "login failed", map[string]interface{}{
		"reason":     reason,
		"error":      err.Error(),
		"screenshot": res.ArtifactPath,
	})
	a.o.deps.Notifier.Notify(ctx,
		fmt.Sprintf("Kite login failed for %s", a.cred.UserID),
		fmt.Sprintf("Reason: %s\nError: %v\nScreenshot: %s", reason, err, res.ArtifactPath))
	return res
}

func (a *attempt) release(ctx context.Context) {
	if a.o.opts.LeaveOpen {
		a.log.Info(ctx, "leaving browser open", nil)
		return
	}
	if err := a.agent.Close(); err != nil {
		a.log.Debug(ctx, "failed to close browser", map[string]interface{}{"error": err.Error()})
	}
}

func typeInto(el browser.Element, text string) error {
	_ = el.Clear()
	if err := el.Type(text); err != nil {
		return fmt.Errorf("%w: %v", ErrInjectionFailure, err)
	}
	return nil
}

func mask(token string) string {
	if len(token) <= 6 {
		return "******"
	}
	return token[:3] + "******" + token[len(token)-3:]
}
