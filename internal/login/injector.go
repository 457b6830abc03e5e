package login

import (
	"context"
	"fmt"
	"time"

	"github.com/sabarim/kitelogin/internal/browser"
	"github.com/sabarim/kitelogin/internal/logger"
)

// Injector types a one-time passcode into located OTP fields.
type Injector struct {
	charDelay time.Duration
	logger    logger.Logger
}

// NewInjector creates an injector pausing charDelay between split-field characters.
func NewInjector(charDelay time.Duration, log logger.Logger) *Injector {
	return &Injector{charDelay: charDelay, logger: log}
}

// Enter writes otp into fields. A single field receives the whole code.
// Several fields receive one character each, in order; when the counts
// differ the extra characters or fields are left out.
func (i *Injector) Enter(ctx context.Context, otp string, fields []browser.Element) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic while typing: %v", ErrInjectionFailure, r)
		}
	}()

	switch len(fields) {
	case 0:
		return fmt.Errorf("%w: no otp fields", ErrInjectionFailure)
	case 1:
		return i.enterSingle(fields[0], otp)
	default:
		return i.enterSplit(ctx, otp, fields)
	}
}

func (i *Injector) enterSingle(field browser.Element, otp string) error {
	// Direct assignment, clear and click only help some widgets; keystrokes decide.
	_ = field.SetValue(otp)
	_ = field.Clear()
	_ = field.Click()

	if err := field.Type(otp); err != nil {
		return fmt.Errorf("%w: %v", ErrInjectionFailure, err)
	}
	return nil
}

func (i *Injector) enterSplit(ctx context.Context, otp string, fields []browser.Element) error {
	chars := []rune(otp)
	if len(chars) != len(fields) {
		i.logger.Warn(ctx, "otp length does not match field count", map[string]interface{}{
			"otp_length":  len(chars),
			"field_count": len(fields),
		})
	}

	n := len(fields)
	if len(chars) < n {
		n = len(chars)
	}

	for idx := 0; idx < n; idx++ {
		field := fields[idx]
		_ = field.Clear()
		_ = field.Click()
		if err := field.Type(string(chars[idx])); err != nil {
			return fmt.Errorf("%w: field %d: %v", ErrInjectionFailure, idx, err)
		}
		if idx < n-1 {
			if err := sleep(ctx, i.charDelay); err != nil {
				return err
			}
		}
	}
	return nil
}
