package login

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/sabarim/kitelogin/internal/browser"
)

const requestTokenMarker = "request_token="

// Artifact is what the redirect URL delivered.
type Artifact struct {
	RequestToken string
	Status       string
	FinalURL     string
}

// Poller watches the address bar for the OAuth redirect.
type Poller struct {
	timeout  time.Duration
	interval time.Duration
}

// NewPoller creates a poller checking every interval until timeout.
func NewPoller(timeout, interval time.Duration) *Poller {
	return &Poller{timeout: timeout, interval: interval}
}

// Poll waits for a URL carrying a request token. A timeout is not an error:
// the artifact then has an empty token and the last URL read successfully.
func (p *Poller) Poll(ctx context.Context, agent browser.Agent) (Artifact, error) {
	var last string
	err := poll(ctx, p.timeout, p.interval, func() bool {
		current, err := agent.CurrentURL(ctx)
		if err != nil {
			return false
		}
		last = current
		return strings.Contains(current, requestTokenMarker)
	})
	if err != nil && err != errWaitTimeout {
		return Artifact{FinalURL: last}, err
	}
	if err == errWaitTimeout {
		return Artifact{FinalURL: last}, nil
	}
	return ParseArtifact(last), nil
}

// ParseArtifact decodes request_token and status from a redirect URL.
func ParseArtifact(raw string) Artifact {
	art := Artifact{FinalURL: raw}
	u, err := url.Parse(raw)
	if err != nil {
		return art
	}
	q := u.Query()
	art.RequestToken = q.Get("request_token")
	art.Status = q.Get("status")
	return art
}
