package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// LaunchOptions configures the local Chrome instance.
type LaunchOptions struct {
	Headless    bool
	Bin         string
	WindowSize  string
	PageTimeout time.Duration
	// LeaveOpen keeps the browser process alive after this program exits.
	LeaveOpen bool
}

// RodAgent implements Agent on a go-rod page.
type RodAgent struct {
	launcher    *launcher.Launcher
	browser     *rod.Browser
	page        *rod.Page
	pageTimeout time.Duration
}

// NewRodFactory returns a Factory launching one browser per attempt.
func NewRodFactory(opts LaunchOptions) Factory {
	return func(ctx context.Context) (Agent, error) {
		return LaunchRod(ctx, opts)
	}
}

// LaunchRod starts Chrome and opens a stealth page on it.
func LaunchRod(ctx context.Context, opts LaunchOptions) (*RodAgent, error) {
	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		Leakless(!opts.LeaveOpen).
		Set("disable-notifications").
		Set("disable-popup-blocking").
		Set("disable-infobars").
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", opts.WindowSize)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	if opts.Headless {
		l = l.Set("disable-gpu")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		b.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	timeout := opts.PageTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &RodAgent{
		launcher:    l,
		browser:     b,
		page:        page,
		pageTimeout: timeout,
	}, nil
}

// Navigate loads url and waits for the load event within the page timeout.
func (a *RodAgent) Navigate(ctx context.Context, url string) error {
	p := a.page.Context(ctx).Timeout(a.pageTimeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("page did not load: %w", err)
	}
	return nil
}

// FindElements queries the live document without waiting.
func (a *RodAgent) FindElements(ctx context.Context, q Query) ([]Element, error) {
	p := a.page.Context(ctx)

	var (
		els rod.Elements
		err error
	)
	switch q.By {
	case ByID:
		els, err = p.Elements(fmt.Sprintf(`[id="%s"]`, strings.ReplaceAll(q.Value, `"`, `\"`)))
	case ByCSS, ByTag:
		els, err = p.Elements(q.Value)
	case ByXPath:
		els, err = p.ElementsX(q.Value)
	default:
		return nil, fmt.Errorf("unsupported query kind %s", q.By)
	}
	if err != nil {
		return nil, err
	}

	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el, timeout: a.pageTimeout})
	}
	return out, nil
}

// ExecuteScript evaluates js as the body of a function on the page.
func (a *RodAgent) ExecuteScript(ctx context.Context, js string) error {
	_, err := a.page.Context(ctx).Eval(fmt.Sprintf("() => { %s }", js))
	return err
}

// CurrentURL returns the address bar URL.
func (a *RodAgent) CurrentURL(ctx context.Context) (string, error) {
	info, err := a.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Screenshot captures the visible viewport as PNG.
func (a *RodAgent) Screenshot(ctx context.Context) ([]byte, error) {
	return a.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Close shuts the browser down and removes its launcher state.
func (a *RodAgent) Close() error {
	err := a.browser.Close()
	a.launcher.Kill()
	a.launcher.Cleanup()
	return err
}

type rodElement struct {
	el      *rod.Element
	timeout time.Duration
}

// bounded scopes one action so waits inside rod cannot outlive the page timeout.
func (e *rodElement) bounded() (*rod.Element, func()) {
	el := e.el.Timeout(e.timeout)
	return el, func() { el.CancelTimeout() }
}

func (e *rodElement) Visible() (bool, error) {
	return e.el.Visible()
}

func (e *rodElement) Enabled() (bool, error) {
	disabled, err := e.el.Property("disabled")
	if err != nil {
		return false, err
	}
	return !disabled.Bool(), nil
}

func (e *rodElement) Click() error {
	el, done := e.bounded()
	defer done()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Clear() error {
	el, done := e.bounded()
	defer done()
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input("")
}

func (e *rodElement) Type(text string) error {
	el, done := e.bounded()
	defer done()
	return el.Input(text)
}

func (e *rodElement) SetValue(value string) error {
	el, done := e.bounded()
	defer done()
	_, err := el.Eval(`(v) => {
		this.focus();
		this.value = v;
		this.dispatchEvent(new Event('input', { bubbles: true }));
	}`, value)
	return err
}
