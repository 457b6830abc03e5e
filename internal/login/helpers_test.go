package login

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sabarim/kitelogin/internal/browser"
	"github.com/sabarim/kitelogin/internal/diagnostics"
)

func fastTimings() Timings {
	return Timings{
		OtpTimeout:        150 * time.Millisecond,
		PollInterval:      5 * time.Millisecond,
		CharDelay:         0,
		TriggerTimeout:    50 * time.Millisecond,
		RedirectTimeout:   150 * time.Millisecond,
		RedirectInterval:  5 * time.Millisecond,
		UserIDTimeout:     60 * time.Millisecond,
		SettleDelay:       0,
		DashboardTimeout:  40 * time.Millisecond,
		HeartbeatInterval: 5 * time.Millisecond,
	}
}

type fakeExchanger struct {
	mu     sync.Mutex
	token  string
	err    error
	tokens []string
}

func (f *fakeExchanger) LoginURL() string {
	return "https://kite.zerodha.com/connect/login?v=3&api_key=key"
}

func (f *fakeExchanger) Exchange(ctx context.Context, requestToken string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, requestToken)
	return f.token, f.err
}

func (f *fakeExchanger) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

type fakeStore struct {
	err    error
	stored map[string]string
}

func (f *fakeStore) Store(accountID, token string) error {
	if f.err != nil {
		return f.err
	}
	if f.stored == nil {
		f.stored = make(map[string]string)
	}
	f.stored[accountID] = token
	return nil
}

type message struct{ subject, body string }

type fakeNotifier struct {
	mu   sync.Mutex
	sent []message
}

func (f *fakeNotifier) Notify(ctx context.Context, subject, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message{subject, body})
}

func (f *fakeNotifier) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		out = append(out, m.subject)
	}
	return out
}

type fakeRecorder struct {
	reasons []string
}

func (f *fakeRecorder) Capture(ctx context.Context, s diagnostics.Screenshotter, accountID, reason string) string {
	if _, err := s.Screenshot(ctx); err != nil {
		return ""
	}
	f.reasons = append(f.reasons, reason)
	return "logs/" + reason + ".png"
}

type fixedPasscode struct {
	code string
	err  error
}

func (f fixedPasscode) Generate(secret string, at time.Time) (string, error) {
	return f.code, f.err
}

// panicElement blows up on Type, as a crashed driver session would.
type panicElement struct{}

func (panicElement) Visible() (bool, error)  { return true, nil }
func (panicElement) Enabled() (bool, error)  { return true, nil }
func (panicElement) Click() error            { return nil }
func (panicElement) Clear() error            { return nil }
func (panicElement) Type(text string) error  { panic("session deleted") }
func (panicElement) SetValue(v string) error { return errors.New("unsupported") }

var _ browser.Element = panicElement{}
