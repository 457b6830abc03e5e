package login

import (
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// PasscodeGenerator produces the one-time passcode for a shared secret.
type PasscodeGenerator interface {
	Generate(secret string, at time.Time) (string, error)
}

// TOTP generates RFC 6238 codes: SHA1, six digits, 30 second steps.
type TOTP struct{}

func (TOTP) Generate(secret string, at time.Time) (string, error) {
	secret = strings.ReplaceAll(strings.TrimSpace(secret), " ", "")
	return totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}
