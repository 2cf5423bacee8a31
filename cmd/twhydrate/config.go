package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"twhydrate/pkg/config"
	"twhydrate/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage twhydrate configuration files.

Configuration is merged from, highest priority first:
  - Command line flags
  - Environment variables (TWHYDRATE_*)
  - .env files (./.env, $HOME/.twhydrate.env)
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	RunE:  runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with secrets masked",
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# twhydrate configuration
#
# Every value can also be set with a TWHYDRATE_* environment variable,
# e.g. TWHYDRATE_CONSUMER_KEY or TWHYDRATE_FOLLOWER_LIMIT.

twitter:
  # OAuth 1.0a secrets. Prefer 'twhydrate auth login' over storing them here.
  consumer_key: ""
  consumer_secret: ""
  access_key: ""
  access_secret: ""
  base_url: "https://api.twitter.com"
  timeout: 30s

lookup:
  # Accounts per users/lookup request, 1-100
  batch_size: 100

followers:
  # Stop a root after the page that takes it above this many followers.
  # 0 pulls every page.
  limit: 10000
  # IDs per followers/ids page, 1-5000
  page_size: 5000
  # Append root<TAB>follower lines here (relative to output.directory)
  edge_file: ""
  # Record finished roots so an interrupted pull can be resumed
  checkpoint: false

output:
  directory: "."
  users_file: "users.tsv"

store:
  # Also write users and follower edges to this SQLite database
  sqlite_path: ""

rate_limit:
  # Sleep until the window resets instead of failing on HTTP 429
  wait_on_rate_limit: true
  max_wait: 16m

retry:
  # Attempts per request for network, 5xx and 429 errors. 0 keeps retrying.
  max_attempts: 5
  initial_backoff: 2s
  max_backoff: 2m
  multiplier: 2.0

metrics:
  # Serve Prometheus metrics, e.g. ":9090". Empty disables.
  listen: ""

logging:
  # debug, info, warn, error
  level: "info"
  # Also append logs to this file
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "twhydrate.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'twhydrate auth login' to store your API credentials")
	fmt.Println("2. Run 'twhydrate config validate' to check the configuration")
	fmt.Println("3. Hydrate accounts with 'twhydrate users --ids ids.txt'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg.Masked())
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Print(string(data))
	if path := configSource(); path != "" {
		fmt.Printf("\n# loaded from %s\n", path)
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configSource()
	if path == "" {
		ui.PrintWarning("No configuration file found, checking defaults and environment")
	} else {
		ui.PrintInfo("Validating configuration", path)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var warnings []string
	if !cfg.HasCredentials() {
		warnings = append(warnings, "Twitter credentials not configured here; 'twhydrate auth login' or TWHYDRATE_* variables must supply them")
	}
	if cfg.Followers.Limit == 0 {
		warnings = append(warnings, "follower limit is 0, every page of every root will be pulled")
	}
	if !cfg.RateLimit.WaitOnRateLimit {
		warnings = append(warnings, "wait_on_rate_limit is off, throttled requests fail instead of waiting")
	}
	if cfg.Output.Directory != "" {
		if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}

	for _, w := range warnings {
		ui.PrintWarning("  - " + w)
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Printf("\n  Output: %s/%s\n", cfg.Output.Directory, cfg.Output.UsersFile)
	fmt.Printf("  Batch size: %d\n", cfg.Lookup.BatchSize)
	fmt.Printf("  Follower limit: %d\n", cfg.Followers.Limit)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}

func configSource() string {
	if configFile != "" {
		return configFile
	}
	return config.FindConfigFile()
}
