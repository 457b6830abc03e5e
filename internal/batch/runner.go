// Package batch logs in a list of accounts one after another.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/sabarim/kitelogin/internal/accounts"
	"github.com/sabarim/kitelogin/internal/logger"
	"github.com/sabarim/kitelogin/internal/login"
)

// Authenticator performs one account login.
type Authenticator interface {
	Login(ctx context.Context, cred accounts.Credential) login.Result
}

// Summary counts the outcomes of a run.
type Summary struct {
	Total         int
	Succeeded     int
	Indeterminate int
	Failed        int
}

// Summarize tallies results. Indeterminate successes are counted separately.
func Summarize(results []login.Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Succeeded() && r.Indeterminate:
			s.Indeterminate++
		case r.Succeeded():
			s.Succeeded++
		default:
			s.Failed++
		}
	}
	return s
}

// Runner processes accounts sequentially with a pause between them.
type Runner struct {
	auth   Authenticator
	delay  time.Duration
	logger logger.Logger
}

// NewRunner creates a runner pausing delay between accounts.
func NewRunner(auth Authenticator, delay time.Duration, log logger.Logger) *Runner {
	return &Runner{auth: auth, delay: delay, logger: log}
}

// Run logs in every account in order and returns one result per processed
// account. A failed account never stops the batch; cancellation does, and
// then ctx.Err() is returned alongside the results gathered so far.
func (r *Runner) Run(ctx context.Context, creds []accounts.Credential) ([]login.Result, error) {
	r.logger.Info(ctx, "starting batch", map[string]interface{}{"accounts": len(creds)})

	results := make([]login.Result, 0, len(creds))
	for i, cred := range creds {
		select {
		case <-ctx.Done():
			r.finish(ctx, results, len(creds))
			return results, ctx.Err()
		default:
		}

		res := r.loginOne(ctx, cred)
		results = append(results, res)
		r.logResult(ctx, res)

		if i == len(creds)-1 {
			break
		}

		// Give the site a breather before the next account
		select {
		case <-ctx.Done():
			r.finish(ctx, results, len(creds))
			return results, ctx.Err()
		case <-time.After(r.delay):
		}
	}

	r.finish(ctx, results, len(creds))
	return results, ctx.Err()
}

// loginOne converts a panic inside an attempt into a failed result.
func (r *Runner) loginOne(ctx context.Context, cred accounts.Credential) (res login.Result) {
	defer func() {
		if p := recover(); p != nil {
			res = login.Result{
				AccountID:     cred.UserID,
				Outcome:       login.OutcomeFailure,
				FailureReason: login.ReasonUnexpected,
				Err:           fmt.Errorf("panic during login: %v", p),
			}
		}
	}()
	return r.auth.Login(ctx, cred)
}

func (r *Runner) logResult(ctx context.Context, res login.Result) {
	fields := map[string]interface{}{
		"account_id": res.AccountID,
		"outcome":    res.Outcome.String(),
	}
	switch {
	case !res.Succeeded():
		fields["reason"] = res.FailureReason
		if res.Err != nil {
			fields["error"] = res.Err.Error()
		}
		if res.ArtifactPath != "" {
			fields["screenshot"] = res.ArtifactPath
		}
		r.logger.Error(ctx, "account failed", fields)
	case res.Indeterminate:
		r.logger.Warn(ctx, "account reached dashboard without token", fields)
	default:
		r.logger.Info(ctx, "account succeeded", fields)
	}
}

func (r *Runner) finish(ctx context.Context, results []login.Result, planned int) {
	s := Summarize(results)
	r.logger.Info(ctx, "batch finished", map[string]interface{}{
		"planned":       planned,
		"processed":     s.Total,
		"succeeded":     s.Succeeded,
		"indeterminate": s.Indeterminate,
		"failed":        s.Failed,
	})
}
