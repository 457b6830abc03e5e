package browser_test

import (
	"testing"

	"github.com/sabarim/kitelogin/internal/browser"
	"github.com/sabarim/kitelogin/internal/browser/browsertest"
	"github.com/stretchr/testify/assert"
)

func TestFilterUsable(t *testing.T) {
	visible := browsertest.NewElement("visible")
	hidden := browsertest.NewElement("hidden")
	hidden.Hidden = true
	disabled := browsertest.NewElement("disabled")
	disabled.Disabled = true
	last := browsertest.NewElement("last")

	got := browser.FilterUsable([]browser.Element{visible, hidden, disabled, last})

	assert.Equal(t, []browser.Element{visible, last}, got)
	assert.Empty(t, browser.FilterUsable(nil))
}

func TestByString(t *testing.T) {
	assert.Equal(t, "id", browser.ByID.String())
	assert.Equal(t, "xpath", browser.ByXPath.String())
	assert.Equal(t, "unknown", browser.By(42).String())
}
