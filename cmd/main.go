package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sabarim/kitelogin/internal/accounts"
	"github.com/sabarim/kitelogin/internal/auth"
	"github.com/sabarim/kitelogin/internal/batch"
	"github.com/sabarim/kitelogin/internal/browser"
	"github.com/sabarim/kitelogin/internal/config"
	"github.com/sabarim/kitelogin/internal/diagnostics"
	"github.com/sabarim/kitelogin/internal/logger"
	"github.com/sabarim/kitelogin/internal/login"
	"github.com/sabarim/kitelogin/internal/notify"
	"github.com/sabarim/kitelogin/internal/tokenstore"
	"github.com/spf13/cobra"
)

var (
	configFile   string
	accountsPath string
	headless     bool
	keepAlive    string
	leaveOpen    bool
	verbose      bool
	version      bool
)

var version_string = "0.1.0"

func main() {
	// Define the root command
	rootCmd := &cobra.Command{
		Use:   "kitelogin",
		Short: "Automated daily Kite Connect login for many accounts",
		Long: `Logs in to Zerodha Kite for every account in the accounts CSV, answers the TOTP
challenge, exchanges the request token for an access token and stores it encrypted.`,
		Run: runRootCommand,
	}

	// Define flags
	rootCmd.Flags().StringVar(&configFile, "config", "config.yaml", "Path to config file")
	rootCmd.Flags().StringVar(&accountsPath, "accounts", "", "Path to the accounts CSV")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "Run the browser without a window")
	rootCmd.Flags().StringVar(&keepAlive, "keep-alive", "", "Keep the session page active after login (0, minutes, duration or indefinite)")
	rootCmd.Flags().BoolVar(&leaveOpen, "leave-open", false, "Do not close the browser after each account")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&version, "version", false, "Print version information")

	// Execute the command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRootCommand(cmd *cobra.Command, args []string) {
	// Check for version flag
	if version {
		fmt.Printf("kitelogin version %s\n", version_string)
		return
	}

	// 1. Load configuration from file, .env and environment
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	// 2. Override configuration with command-line flags
	if accountsPath != "" {
		cfg.Accounts.Path = accountsPath
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if keepAlive != "" {
		cfg.Login.KeepAlive = keepAlive
	}
	if leaveOpen {
		cfg.Browser.LeaveOpen = true
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 3. Set up logging
	appLog, err := logger.NewLogrusLogger(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer appLog.Close()

	// 4. Create context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Handle OS signals
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigchan
		appLog.Warn(ctx, "received signal, initiating shutdown", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	// 6. Load accounts
	creds, err := accounts.NewLoader(cfg.Accounts.Path, appLog).Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load accounts: %v", err)
	}
	if len(creds) == 0 {
		appLog.Warn(ctx, "no usable accounts found", map[string]interface{}{"path": cfg.Accounts.Path})
		return
	}

	// 7. Wire the login orchestrator
	orchestrator := login.NewOrchestrator(login.Dependencies{
		Agents: browser.NewRodFactory(browser.LaunchOptions{
			Headless:    cfg.Browser.Headless,
			Bin:         cfg.Browser.Bin,
			WindowSize:  cfg.Browser.WindowSize,
			PageTimeout: cfg.Browser.PageTimeout,
			LeaveOpen:   cfg.Browser.LeaveOpen,
		}),
		Exchanger: auth.NewAuthManager(cfg.Auth, appLog),
		Store:     tokenstore.NewFernetStore(cfg.Storage.TokenDir, cfg.Storage.FernetKey),
		Notifier:  newNotifier(ctx, cfg.Notify, appLog),
		Recorder:  diagnostics.NewRecorder(cfg.Login.DiagnosticsDir, appLog),
		Passcodes: login.TOTP{},
	}, loginOptions(cfg), appLog)

	// 8. Run the batch
	results, err := batch.NewRunner(orchestrator, cfg.Login.AccountDelay, appLog).Run(ctx, creds)
	summary := batch.Summarize(results)
	fmt.Printf("Processed %d of %d accounts: %d succeeded, %d indeterminate, %d failed\n",
		summary.Total, len(creds), summary.Succeeded, summary.Indeterminate, summary.Failed)

	exitCode := 0
	if errors.Is(err, context.Canceled) {
		appLog.Warn(ctx, "batch interrupted", nil)
		exitCode = 1
	} else if summary.Failed > 0 {
		exitCode = 1
	}
	if exitCode != 0 {
		appLog.Close()
		os.Exit(exitCode)
	}
}

func loginOptions(cfg config.Config) login.Options {
	timings := login.DefaultTimings()
	timings.HeartbeatInterval = cfg.Login.HeartbeatInterval

	// Validate has already rejected a malformed value
	keep, _ := cfg.KeepAliveDuration()
	if keep == config.KeepAliveForever {
		keep = login.Forever
	}

	return login.Options{
		Timings:   timings,
		KeepAlive: keep,
		LeaveOpen: cfg.Browser.LeaveOpen,
	}
}

func newNotifier(ctx context.Context, cfg config.NotifyConfig, log logger.Logger) login.Notifier {
	mailer := notify.NewMailer(cfg, log)
	if !mailer.Enabled() {
		log.Info(ctx, "email notifications disabled", nil)
		return notify.Nop{}
	}
	return mailer
}
