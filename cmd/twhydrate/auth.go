package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"twhydrate/pkg/auth"
	"twhydrate/pkg/config"
	"twhydrate/pkg/logger"
	"twhydrate/pkg/twitter"
	"twhydrate/pkg/ui"
)

var noVerify bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Twitter API credentials",
	Long: `Manage the OAuth 1.0a secrets twhydrate signs its requests with.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (TWHYDRATE_CONSUMER_KEY and friends, read only)`,
}

var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store Twitter API credentials",
	Long: `Prompt for the consumer key, consumer secret, access token and access
token secret, check them against the API and store them under a profile
("default" unless given).`,
	Example: `  twhydrate auth login
  twhydrate auth login research --no-verify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove stored credentials",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	RunE:  runList,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the credentials in use against the API",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().BoolVar(&noVerify, "no-verify", false, "store without checking the credentials")
}

func profileArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if profile != "" {
		return profile
	}
	return auth.DefaultProfile
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := profileArg(args)
	reader := bufio.NewReader(os.Stdin)

	ui.PrintBanner()
	auth.ShowCredentialGuide(os.Stdout)
	fmt.Println()

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("Profile '%s' already exists. Replace it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	account := &auth.Account{Profile: name}
	prompts := []struct {
		label string
		dest  *string
	}{
		{"Consumer key (API Key)", &account.ConsumerKey},
		{"Consumer secret (API Key Secret)", &account.ConsumerSecret},
		{"Access token", &account.AccessKey},
		{"Access token secret", &account.AccessSecret},
	}
	for _, p := range prompts {
		fmt.Printf("%s: ", p.label)
		value, err := readSecret(reader)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", strings.ToLower(p.label), err)
		}
		*p.dest = value
	}

	if err := account.Validate(); err != nil {
		return err
	}

	if !noVerify {
		fmt.Println("\nChecking credentials...")
		screenName, err := verifyAccount(context.Background(), account)
		if err != nil {
			return fmt.Errorf("credentials rejected: %w", err)
		}
		account.ScreenName = screenName
		ui.PrintInfo("Authenticated as", "@"+screenName)
	}

	if err := manager.Store(account); err != nil {
		return err
	}

	ui.PrintSuccess("Credentials stored for profile " + name)
	return nil
}

// verifyAccount calls verify_credentials with account and returns the
// authenticated screen name
func verifyAccount(ctx context.Context, account *auth.Account) (string, error) {
	cfg := config.DefaultConfig()
	account.Apply(cfg)
	cfg.Retry.MaxAttempts = 1

	client, err := twitter.NewClient(cfg, logger.NewNopLogger())
	if err != nil {
		return "", err
	}
	user, err := client.VerifyCredentials(ctx)
	if err != nil {
		return "", err
	}
	name, _ := user["screen_name"].(string)
	return name, nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := profileArg(args)
	if err := manager.Delete(name); err != nil {
		return err
	}
	ui.PrintSuccess("Credentials removed for profile " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored profiles", "use 'twhydrate auth login' to add one")
		return nil
	}

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Profile: %s\n", i+1, sanitized.Profile)
		if sanitized.ScreenName != "" {
			fmt.Printf("   Screen name: @%s\n", sanitized.ScreenName)
		}
		fmt.Printf("   Consumer key: %s\n", sanitized.ConsumerKey)
		fmt.Printf("   Access key: %s\n", sanitized.AccessKey)
		fmt.Printf("   Last modified: %s\n\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer a.stop()

	client, err := a.client()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(a.ctx, 30*time.Second)
	defer cancel()
	user, err := client.VerifyCredentials(ctx)
	if err != nil {
		return fmt.Errorf("credentials rejected: %w", err)
	}

	name, _ := user["screen_name"].(string)
	ui.PrintSuccess("Credentials are valid")
	ui.PrintInfo("Authenticated as", "@"+name)
	if w, ok := client.Tracker().Window(twitter.VerifyCredentialsEndpoint); ok {
		ui.PrintInfo("verify_credentials window", fmt.Sprintf("%d/%d left, resets %s",
			w.Remaining, w.Limit, w.Reset.Local().Format("15:04:05")))
	}
	return nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
