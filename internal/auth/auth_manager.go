package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/sabarim/kitelogin/internal/config"
	"github.com/sabarim/kitelogin/internal/logger"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

// ErrNoAccessToken is returned when the API accepted the request token but
// the response carried no access token.
var ErrNoAccessToken = errors.New("session response contained no access token")

// AuthManager exchanges request tokens for access tokens with the Kite Connect API
type AuthManager struct {
	config     config.AuthConfig
	kite       *kiteconnect.Client
	logger     logger.Logger
	retryDelay time.Duration
}

// NewAuthManager creates a new authentication manager
func NewAuthManager(cfg config.AuthConfig, log logger.Logger) *AuthManager {
	kite := kiteconnect.New(cfg.ApiKey)
	kite.SetHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout})
	if cfg.BaseURI != "" {
		kite.SetBaseURI(cfg.BaseURI)
	}

	return &AuthManager{
		config:     cfg,
		kite:       kite,
		logger:     log,
		retryDelay: time.Second,
	}
}

// LoginURL returns the interactive login URL for the configured app.
// A configured login URL overrides the Kite Connect default.
func (am *AuthManager) LoginURL() string {
	if am.config.LoginURL != "" {
		return am.config.LoginURL
	}
	return am.kite.GetLoginURL()
}

// Exchange trades a request token for an access token. Network failures are
// retried; API errors such as an expired token are returned immediately.
func (am *AuthManager) Exchange(ctx context.Context, requestToken string) (string, error) {
	session, err := am.GenerateSession(ctx, requestToken)
	if err != nil {
		return "", err
	}
	return session.AccessToken, nil
}

// GenerateSession performs the exchange and returns the session details
func (am *AuthManager) GenerateSession(ctx context.Context, requestToken string) (Session, error) {
	attempts := am.config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var data kiteconnect.UserSession
	err := retry.Do(
		func() error {
			var err error
			data, err = am.kite.GenerateSession(requestToken, am.config.ApiSecret)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(am.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			am.logger.Warn(ctx, "retrying token exchange", map[string]interface{}{
				"attempt": n + 1,
				"error":   err.Error(),
			})
		}),
	)
	if err != nil {
		return Session{}, fmt.Errorf("generate session failed: %w", err)
	}

	session := Session{
		UserID:      data.UserSessionTokens.UserID,
		AccessToken: data.AccessToken,
		PublicToken: data.PublicToken,
		LoginTime:   data.LoginTime.String(),
	}
	if session.AccessToken == "" {
		am.logger.Error(ctx, "generate session returned no access token", map[string]interface{}{
			"response": fmt.Sprintf("%+v", redact(data)),
		})
		return session, ErrNoAccessToken
	}

	return session, nil
}

// isTransient reports whether err is worth another attempt
func isTransient(err error) bool {
	var kerr kiteconnect.Error
	if errors.As(err, &kerr) {
		return kerr.ErrorType == kiteconnect.NetworkError
	}
	return true
}

// redact strips secrets before a response is logged
func redact(s kiteconnect.UserSession) kiteconnect.UserSession {
	if s.RefreshToken != "" {
		s.RefreshToken = "***"
	}
	if s.PublicToken != "" {
		s.PublicToken = "***"
	}
	return s
}
