package login

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sabarim/kitelogin/internal/browser"
	"github.com/sabarim/kitelogin/internal/browser/browsertest"
	"github.com/sabarim/kitelogin/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxes(n int) ([]*browsertest.Element, []browser.Element) {
	els := make([]*browsertest.Element, n)
	fields := make([]browser.Element, n)
	for i := range els {
		els[i] = browsertest.NewElement("digit")
		fields[i] = els[i]
	}
	return els, fields
}

func TestEnter_SingleFieldTypesOnce(t *testing.T) {
	field := browsertest.NewElement("totp")
	inj := NewInjector(0, logger.NewTestLogger())

	require.NoError(t, inj.Enter(context.Background(), "123456", []browser.Element{field}))
	assert.Equal(t, []string{"123456"}, field.Typed())
	assert.Equal(t, "123456", field.Value())
	assert.Equal(t, 1, field.Clicks())
}

func TestEnter_SingleFieldIgnoresBestEffortErrors(t *testing.T) {
	field := browsertest.NewElement("totp")
	field.SetValueErr = errors.New("readonly")
	field.ClickErr = errors.New("intercepted")
	inj := NewInjector(0, logger.NewTestLogger())

	require.NoError(t, inj.Enter(context.Background(), "123456", []browser.Element{field}))
	assert.Equal(t, []string{"123456"}, field.Typed())
}

func TestEnter_SplitFields(t *testing.T) {
	els, fields := boxes(6)
	inj := NewInjector(0, logger.NewTestLogger())

	require.NoError(t, inj.Enter(context.Background(), "123456", fields))
	for i, el := range els {
		assert.Equal(t, []string{string("123456"[i])}, el.Typed())
	}
}

func TestEnter_TruncatesToFieldCount(t *testing.T) {
	els, fields := boxes(4)
	log := logger.NewTestLogger()
	inj := NewInjector(0, log)

	require.NoError(t, inj.Enter(context.Background(), "654321", fields))
	var got []string
	for _, el := range els {
		got = append(got, el.Value())
	}
	assert.Equal(t, []string{"6", "5", "4", "3"}, got)
	assert.True(t, log.HasMessage("warn", "otp length does not match field count"))
}

func TestEnter_SurplusFieldsUntouched(t *testing.T) {
	els, fields := boxes(8)
	inj := NewInjector(0, logger.NewTestLogger())

	require.NoError(t, inj.Enter(context.Background(), "123456", fields))
	assert.Equal(t, "6", els[5].Value())
	assert.Empty(t, els[6].Typed())
	assert.Empty(t, els[7].Typed())
}

func TestEnter_Failures(t *testing.T) {
	inj := NewInjector(0, logger.NewTestLogger())

	broken := browsertest.NewElement("totp")
	broken.TypeErr = errors.New("stale element")
	err := inj.Enter(context.Background(), "123456", []browser.Element{broken})
	assert.ErrorIs(t, err, ErrInjectionFailure)

	err = inj.Enter(context.Background(), "123456", nil)
	assert.ErrorIs(t, err, ErrInjectionFailure)

	err = inj.Enter(context.Background(), "123456", []browser.Element{panicElement{}})
	assert.ErrorIs(t, err, ErrInjectionFailure)
	assert.Contains(t, err.Error(), "session deleted")
}

func TestEnter_SplitCancelled(t *testing.T) {
	_, fields := boxes(6)
	inj := NewInjector(50*time.Millisecond, logger.NewTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := inj.Enter(ctx, "123456", fields)
	assert.ErrorIs(t, err, context.Canceled)
}
