package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"twhydrate/pkg/auth"
	"twhydrate/pkg/config"
	"twhydrate/pkg/logger"
	"twhydrate/pkg/metrics"
	"twhydrate/pkg/twitter"
	"twhydrate/pkg/ui"
)

var (
	version   = "0.3.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	profile       string
	outputDir     string
	sqlitePath    string
	metricsListen string
	quiet         bool
)

var rootCmd = &cobra.Command{
	Use:   "twhydrate",
	Short: "Hydrate Twitter users and follower graphs into TSV files",
	Long: `twhydrate looks up Twitter accounts by ID or screen name in batches of up
to 100 and pulls follower ID listings, writing sanitized tab-separated files.

A batch that the API rejects as a whole is retried one account at a time, so a
single suspended or invalid account never costs the other 99. A root whose
follower listing fails is skipped with the pages already pulled kept.

Credentials are the four OAuth 1.0a secrets of a Twitter app, stored with
'twhydrate auth login' or supplied through TWHYDRATE_* environment variables.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./twhydrate.yaml or $HOME/.twhydrate.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "stored credential profile to use")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "", "directory for output files")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite", "", "also write results to this SQLite database")
	rootCmd.PersistentFlags().StringVar(&metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address, e.g. :9090")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	rootCmd.SetVersionTemplate(`twhydrate {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// app is the state shared by the commands that talk to the API
type app struct {
	cfg  *config.Config
	log  logger.Logger
	ctx  context.Context
	stop context.CancelFunc
}

// setup loads the configuration with cmd's changed flags on top, starts
// logging and, when configured, the metrics server
func setup(cmd *cobra.Command, flags map[string]interface{}) (*app, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	changed := cmd.Flags().Changed
	if changed("log-level") {
		flags["log-level"] = logLevel
	}
	if changed("output-dir") {
		flags["output-dir"] = outputDir
	}
	if changed("sqlite") {
		flags["sqlite"] = sqlitePath
	}
	if changed("metrics-listen") {
		flags["metrics-listen"] = metricsListen
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Debug("twhydrate starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{cfg: cfg, log: log, ctx: ctx, stop: stop}

	if cfg.Metrics.Listen != "" {
		if _, err := metrics.Serve(ctx, cfg.Metrics.Listen, log); err != nil {
			stop()
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
	}
	return a, nil
}

// credentials fills missing secrets from the credential store
func (a *app) credentials() error {
	if a.cfg.HasCredentials() {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var account *auth.Account
	if profile != "" {
		account, err = manager.Retrieve(profile)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if err != nil {
		return fmt.Errorf("no Twitter credentials found, run 'twhydrate auth login' or set %s and friends: %w",
			auth.EnvConsumerKey, err)
	}

	account.Apply(a.cfg)
	a.log.WithField("profile", account.Profile).Debug("using stored credentials")
	return nil
}

// client returns an API client signed with the resolved credentials
func (a *app) client() (*twitter.Client, error) {
	if err := a.credentials(); err != nil {
		return nil, err
	}
	return twitter.NewClient(a.cfg, a.log)
}
