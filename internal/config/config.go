package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// KeepAliveForever is the keep-alive value that never expires.
const KeepAliveForever time.Duration = -1

// Config defines the application configuration structure
type Config struct {
	Auth     AuthConfig     `mapstructure:"auth"`
	Accounts AccountsConfig `mapstructure:"accounts"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Login    LoginConfig    `mapstructure:"login"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
}

// AuthConfig defines the Kite Connect app credentials
type AuthConfig struct {
	ApiKey      string        `mapstructure:"api_key"`
	ApiSecret   string        `mapstructure:"api_secret"`
	RedirectURL string        `mapstructure:"redirect_url"`
	LoginURL    string        `mapstructure:"login_url"`
	BaseURI     string        `mapstructure:"base_uri"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// AccountsConfig defines where the account list is read from
type AccountsConfig struct {
	Path string `mapstructure:"path"`
}

// BrowserConfig defines how the controllable browser is launched
type BrowserConfig struct {
	Headless    bool          `mapstructure:"headless"`
	Bin         string        `mapstructure:"bin"`
	WindowSize  string        `mapstructure:"window_size"`
	PageTimeout time.Duration `mapstructure:"page_timeout"`
	LeaveOpen   bool          `mapstructure:"leave_open"`
}

// LoginConfig defines the login automation timings
type LoginConfig struct {
	KeepAlive         string        `mapstructure:"keep_alive"`
	KeepAliveMinutes  int           `mapstructure:"keep_alive_minutes"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	AccountDelay      time.Duration `mapstructure:"account_delay"`
	DiagnosticsDir    string        `mapstructure:"diagnostics_dir"`
}

// StorageConfig defines the encrypted token store
type StorageConfig struct {
	TokenDir  string `mapstructure:"token_dir"`
	FernetKey string `mapstructure:"fernet_key"`
}

// NotifyConfig defines the email notification settings
type NotifyConfig struct {
	Email    string `mapstructure:"email"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	SMTPUser string `mapstructure:"smtp_user"`
	SMTPPass string `mapstructure:"smtp_pass"`
}

// LogConfig defines logging output
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// LoadConfig loads configuration from file, .env and environment variables
func LoadConfig(path string) (Config, error) {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Error reading .env: %v, continuing with process environment\n", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
	}

	// Each key accepts the prefixed name first, then the legacy .env name
	v.BindEnv("auth.api_key", "KITELOGIN_API_KEY", "API_KEY")
	v.BindEnv("auth.api_secret", "KITELOGIN_API_SECRET", "API_SECRET")
	v.BindEnv("auth.redirect_url", "KITELOGIN_REDIRECT_URL", "REDIRECT_URL")
	v.BindEnv("auth.login_url", "KITELOGIN_LOGIN_URL")
	v.BindEnv("auth.base_uri", "KITELOGIN_BASE_URI")
	v.BindEnv("auth.http_timeout", "KITELOGIN_HTTP_TIMEOUT")
	v.BindEnv("auth.max_retries", "KITELOGIN_MAX_RETRIES")

	v.BindEnv("accounts.path", "KITELOGIN_ACCOUNTS_CSV", "ACCOUNTS_CSV")

	v.BindEnv("browser.headless", "KITELOGIN_HEADLESS", "HEADLESS")
	v.BindEnv("browser.bin", "KITELOGIN_BROWSER_BIN")
	v.BindEnv("browser.window_size", "KITELOGIN_WINDOW_SIZE")
	v.BindEnv("browser.page_timeout", "KITELOGIN_PAGE_TIMEOUT")
	v.BindEnv("browser.leave_open", "KITELOGIN_LEAVE_BROWSER_OPEN")

	v.BindEnv("login.keep_alive", "KITELOGIN_KEEP_ALIVE", "KEEP_ALIVE")
	v.BindEnv("login.keep_alive_minutes", "KEEP_BROWSER_MINUTES")
	v.BindEnv("login.heartbeat_interval", "KITELOGIN_HEARTBEAT_INTERVAL")
	v.BindEnv("login.account_delay", "KITELOGIN_ACCOUNT_DELAY")
	v.BindEnv("login.diagnostics_dir", "KITELOGIN_DIAGNOSTICS_DIR")

	v.BindEnv("storage.token_dir", "KITELOGIN_TOKEN_DIR")
	v.BindEnv("storage.fernet_key", "KITELOGIN_FERNET_KEY", "FERNET_KEY")

	v.BindEnv("notify.email", "KITELOGIN_NOTIFY_EMAIL", "NOTIFY_EMAIL")
	v.BindEnv("notify.smtp_host", "SMTP_HOST")
	v.BindEnv("notify.smtp_port", "SMTP_PORT")
	v.BindEnv("notify.smtp_user", "SMTP_USER")
	v.BindEnv("notify.smtp_pass", "SMTP_PASS")

	v.BindEnv("log.level", "KITELOGIN_LOG_LEVEL")
	v.BindEnv("log.format", "KITELOGIN_LOG_FORMAT")
	v.BindEnv("log.file", "KITELOGIN_LOG_FILE")

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyDefaults(&config)

	return config, nil
}

// Validate checks the settings without which no account can be processed
func (c Config) Validate() error {
	if c.Auth.ApiKey == "" || c.Auth.ApiSecret == "" {
		return fmt.Errorf("api key and api secret are required (API_KEY / API_SECRET)")
	}
	if _, err := c.KeepAliveDuration(); err != nil {
		return err
	}
	if c.Login.HeartbeatInterval <= 0 {
		return fmt.Errorf("invalid heartbeat interval %s: must be positive", c.Login.HeartbeatInterval)
	}
	return nil
}

// KeepAliveDuration resolves the configured keep-alive window.
// The legacy minute count is used only when no keep_alive value is set.
func (c Config) KeepAliveDuration() (time.Duration, error) {
	if strings.TrimSpace(c.Login.KeepAlive) != "" {
		return ParseKeepAlive(c.Login.KeepAlive)
	}
	if c.Login.KeepAliveMinutes < 0 {
		return 0, fmt.Errorf("invalid keep-alive minutes: %d", c.Login.KeepAliveMinutes)
	}
	return time.Duration(c.Login.KeepAliveMinutes) * time.Minute, nil
}

// ParseKeepAlive parses "0", a number of minutes, a Go duration or "indefinite".
func ParseKeepAlive(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "0", "none", "off":
		return 0, nil
	case "indefinite", "forever", "unbounded":
		return KeepAliveForever, nil
	}

	if minutes, err := strconv.Atoi(s); err == nil {
		if minutes < 0 {
			return 0, fmt.Errorf("invalid keep-alive %q: must not be negative", s)
		}
		return time.Duration(minutes) * time.Minute, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid keep-alive %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid keep-alive %q: must not be negative", s)
	}
	return d, nil
}

// applyDefaults sets default values for any config values not set from file or environment
func applyDefaults(config *Config) {
	// Auth defaults
	if config.Auth.RedirectURL == "" {
		config.Auth.RedirectURL = "http://localhost:8000/callback"
	}
	if config.Auth.HTTPTimeout == 0 {
		config.Auth.HTTPTimeout = 15 * time.Second
	}
	if config.Auth.MaxRetries == 0 {
		config.Auth.MaxRetries = 3
	}

	// Accounts defaults
	if config.Accounts.Path == "" {
		config.Accounts.Path = "accounts.csv"
	}

	// Browser defaults
	if config.Browser.WindowSize == "" {
		config.Browser.WindowSize = "1366,900"
	}
	if config.Browser.PageTimeout == 0 {
		config.Browser.PageTimeout = 60 * time.Second
	}

	// Login defaults
	if config.Login.HeartbeatInterval == 0 {
		config.Login.HeartbeatInterval = 30 * time.Second
	}
	if config.Login.AccountDelay == 0 {
		config.Login.AccountDelay = 4 * time.Second
	}
	if config.Login.DiagnosticsDir == "" {
		config.Login.DiagnosticsDir = "logs"
	}

	// Storage defaults
	if config.Storage.TokenDir == "" {
		config.Storage.TokenDir = "tokens"
	}

	// Notify defaults
	if config.Notify.SMTPPort == 0 {
		config.Notify.SMTPPort = 587
	}

	// Log defaults
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
	if config.Log.File == "" {
		config.Log.File = "logs/kitelogin.log"
	}
}
