// Package browser defines the controllable browser capability used by the
// login automation and its go-rod implementation.
package browser

import (
	"context"
	"errors"
)

// ErrClosed is returned by an agent whose browser has been closed.
var ErrClosed = errors.New("browser agent closed")

// By selects how FindElements interprets its value.
type By int

const (
	// ByID matches the element id attribute.
	ByID By = iota
	// ByCSS matches a CSS selector.
	ByCSS
	// ByXPath matches an XPath expression.
	ByXPath
	// ByTag matches a tag name.
	ByTag
)

func (b By) String() string {
	switch b {
	case ByID:
		return "id"
	case ByCSS:
		return "css"
	case ByXPath:
		return "xpath"
	case ByTag:
		return "tag"
	default:
		return "unknown"
	}
}

// Query is a single element lookup.
type Query struct {
	By    By
	Value string
}

// Element is a handle to a node of the live page.
type Element interface {
	Visible() (bool, error)
	Enabled() (bool, error)
	Click() error
	Clear() error
	// Type simulates keystrokes for text.
	Type(text string) error
	// SetValue focuses the element and assigns its value directly.
	SetValue(value string) error
}

// Agent is a single controllable browser page.
type Agent interface {
	Navigate(ctx context.Context, url string) error
	// FindElements returns matches in document order. No match is not an error.
	FindElements(ctx context.Context, q Query) ([]Element, error)
	ExecuteScript(ctx context.Context, js string) error
	CurrentURL(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Factory creates a fresh agent for one login attempt.
type Factory func(ctx context.Context) (Agent, error)

// Usable reports whether el is both visible and enabled. Errors count as not usable.
func Usable(el Element) bool {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false
	}
	enabled, err := el.Enabled()
	return err == nil && enabled
}

// FilterUsable keeps the visible and enabled elements, preserving order.
func FilterUsable(els []Element) []Element {
	var out []Element
	for _, el := range els {
		if Usable(el) {
			out = append(out, el)
		}
	}
	return out
}
