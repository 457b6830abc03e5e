package login

import "errors"

// Failure kinds. Result.Err wraps one of these when the kind is known.
var (
	// ErrElementNotFound means a required field or control never appeared.
	ErrElementNotFound = errors.New("element not found")

	// ErrInjectionFailure means typing credentials or the passcode failed.
	ErrInjectionFailure = errors.New("input injection failed")

	// ErrExchangeFailure means the request token could not be exchanged.
	ErrExchangeFailure = errors.New("token exchange failed")

	// ErrPersistenceFailure means the access token could not be stored.
	ErrPersistenceFailure = errors.New("token persistence failed")

	// ErrIndeterminateSuccess marks a dashboard reached without a request token.
	ErrIndeterminateSuccess = errors.New("dashboard reached without request token")
)
