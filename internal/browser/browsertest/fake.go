// Package browsertest provides an in-memory browser.Agent for tests.
package browsertest

import (
	"context"
	"errors"
	"sync"

	"github.com/sabarim/kitelogin/internal/browser"
)

// Element is a scripted page element recording every interaction.
type Element struct {
	Name     string
	Hidden   bool
	Disabled bool

	ClickErr    error
	TypeErr     error
	SetValueErr error
	// OnClick runs after a successful click, e.g. to change the page URL.
	OnClick func()

	mu     sync.Mutex
	value  string
	typed  []string
	clicks int
	clears int
}

// NewElement returns a visible, enabled element.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

func (e *Element) Visible() (bool, error) { return !e.Hidden, nil }
func (e *Element) Enabled() (bool, error) { return !e.Disabled, nil }

func (e *Element) Click() error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.mu.Lock()
	e.clicks++
	onClick := e.OnClick
	e.mu.Unlock()
	if onClick != nil {
		onClick()
	}
	return nil
}

func (e *Element) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clears++
	e.value = ""
	return nil
}

func (e *Element) Type(text string) error {
	if e.TypeErr != nil {
		return e.TypeErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.typed = append(e.typed, text)
	e.value += text
	return nil
}

func (e *Element) SetValue(value string) error {
	if e.SetValueErr != nil {
		return e.SetValueErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = value
	return nil
}

// Typed returns every Type call in order.
func (e *Element) Typed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.typed...)
}

// Value returns the current field value.
func (e *Element) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Clicks returns the number of successful clicks.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

type rule struct {
	after    int
	elements []*Element
}

// Agent is a scripted browser.Agent. Queries without a rule return nothing.
type Agent struct {
	NavigateErr   error
	ScriptErr     error
	ScreenshotErr error
	URLErr        error
	// ScreenshotData is returned by Screenshot.
	ScreenshotData []byte

	mu        sync.Mutex
	rules     map[browser.Query]rule
	calls     map[browser.Query]int
	url       string
	navigated []string
	scripts   []string
	shots     int
	closed    bool
}

// NewAgent returns an empty fake agent.
func NewAgent() *Agent {
	return &Agent{
		rules:          make(map[browser.Query]rule),
		calls:          make(map[browser.Query]int),
		ScreenshotData: []byte("\x89PNG fake"),
	}
}

// Put makes q return els.
func (a *Agent) Put(q browser.Query, els ...*Element) {
	a.PutAfter(q, 0, els...)
}

// PutAfter makes q return els once q has been queried more than calls times,
// simulating a page that is still rendering.
func (a *Agent) PutAfter(q browser.Query, calls int, els ...*Element) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rules[q] = rule{after: calls, elements: els}
}

// SetURL sets the current address bar URL.
func (a *Agent) SetURL(u string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.url = u
}

// SetURLErr makes CurrentURL fail with err, or succeed again when err is nil.
func (a *Agent) SetURLErr(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.URLErr = err
}

// Calls returns how often q was queried.
func (a *Agent) Calls(q browser.Query) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[q]
}

// Navigated returns the URLs passed to Navigate.
func (a *Agent) Navigated() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.navigated...)
}

// Scripts returns the executed scripts.
func (a *Agent) Scripts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.scripts...)
}

// Screenshots returns how many screenshots were taken.
func (a *Agent) Screenshots() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shots
}

// Closed reports whether Close was called.
func (a *Agent) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func (a *Agent) Navigate(ctx context.Context, url string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.NavigateErr != nil {
		return a.NavigateErr
	}
	a.navigated = append(a.navigated, url)
	a.url = url
	return nil
}

func (a *Agent) FindElements(ctx context.Context, q browser.Query) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, browser.ErrClosed
	}

	a.calls[q]++
	r, ok := a.rules[q]
	if !ok || a.calls[q] <= r.after {
		return nil, nil
	}

	out := make([]browser.Element, 0, len(r.elements))
	for _, el := range r.elements {
		out = append(out, el)
	}
	return out, nil
}

func (a *Agent) ExecuteScript(ctx context.Context, js string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scripts = append(a.scripts, js)
	return a.ScriptErr
}

func (a *Agent) CurrentURL(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.URLErr != nil {
		return "", a.URLErr
	}
	return a.url, nil
}

func (a *Agent) Screenshot(ctx context.Context) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shots++
	if a.ScreenshotErr != nil {
		return nil, a.ScreenshotErr
	}
	return a.ScreenshotData, nil
}

func (a *Agent) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errors.New("already closed")
	}
	a.closed = true
	return nil
}

// Factory returns a browser.Factory handing out agents in order.
// Once exhausted it returns errExhausted.
func Factory(agents ...*Agent) browser.Factory {
	var mu sync.Mutex
	next := 0
	return func(ctx context.Context) (browser.Agent, error) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(agents) {
			return nil, errExhausted
		}
		a := agents[next]
		next++
		return a, nil
	}
}

var errExhausted = errors.New("browsertest: no more agents")
