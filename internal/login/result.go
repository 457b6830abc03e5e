package login

import "time"

// Forever keeps the heartbeat running until the context is cancelled.
const Forever time.Duration = -1

// Outcome is the terminal verdict of one login attempt.
type Outcome int

const (
	OutcomeFailure Outcome = iota
	OutcomeSuccess
)

func (o Outcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "failure"
}

// State is a step of the login state machine.
type State string

const (
	StateStart                 State = "start"
	StateCredentialsSubmitted  State = "credentials_submitted"
	StateOtpLocated            State = "otp_located"
	StateOtpEntered            State = "otp_entered"
	StateContinuationTriggered State = "continuation_triggered"
	StateTokenCaptured         State = "token_captured"
	StateDashboardReached      State = "dashboard_reached_indeterminate"
	StateFailed                State = "failed"
)

// Failure reasons reported in Result.FailureReason.
const (
	ReasonBrowserLaunch      = "browser launch failed"
	ReasonLoginPage          = "login page unavailable"
	ReasonUserIDNotFound     = "user id field not found"
	ReasonPasswordNotFound   = "password field not found"
	ReasonSubmitNotFound     = "submit control not found"
	ReasonCredentialEntry    = "credential entry failed"
	ReasonOtpNotFound        = "otp field not found"
	ReasonOtpGeneration      = "otp generation failed"
	ReasonOtpEntry           = "otp entry failed"
	ReasonExchange           = "token exchange failed"
	ReasonNoTokenNoDashboard = "no token, no dashboard"
	ReasonPersistence        = "token persistence failed"
	ReasonCancelled          = "cancelled"
	ReasonUnexpected         = "unexpected error"
)

// Result is the single record produced for an account in a run.
type Result struct {
	AccountID     string
	Outcome       Outcome
	AccessToken   string
	FailureReason string
	ArtifactPath  string
	// Indeterminate is set when the dashboard loaded but no token was captured.
	Indeterminate bool
	// Err is set for failures and for indeterminate successes.
	Err error
}

// Succeeded reports whether the attempt counts as an operational success.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}
