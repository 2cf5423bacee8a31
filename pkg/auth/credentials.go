package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"twhydrate/pkg/config"
)

// DefaultProfile names the credentials used when no profile is given
const DefaultProfile = "default"

// Account holds the four OAuth1 secrets of one Twitter app/user pair
type Account struct {
	Profile        string    `json:"profile"`
	ScreenName     string    `json:"screen_name,omitempty"`
	ConsumerKey    string    `json:"consumer_key"`
	ConsumerSecret string    `json:"consumer_secret"`
	AccessKey      string    `json:"access_key"`
	AccessSecret   string    `json:"access_secret"`
	LastModified   time.Time `json:"last_modified"`
}

// Validate checks that all four secrets are present
func (a *Account) Validate() error {
	var errs []error
	if a.Profile == "" {
		errs = append(errs, errors.New("profile is required"))
	}
	if a.ConsumerKey == "" {
		errs = append(errs, errors.New("consumer key is required"))
	}
	if a.ConsumerSecret == "" {
		errs = append(errs, errors.New("consumer secret is required"))
	}
	if a.AccessKey == "" {
		errs = append(errs, errors.New("access key is required"))
	}
	if a.AccessSecret == "" {
		errs = append(errs, errors.New("access secret is required"))
	}
	return errors.Join(errs...)
}

// Apply copies the secrets into cfg, leaving values already set there
// (from flags, env or the config file) untouched
func (a *Account) Apply(cfg *config.Config) {
	if cfg.Twitter.ConsumerKey == "" {
		cfg.Twitter.ConsumerKey = a.ConsumerKey
	}
	if cfg.Twitter.ConsumerSecret == "" {
		cfg.Twitter.ConsumerSecret = a.ConsumerSecret
	}
	if cfg.Twitter.AccessKey == "" {
		cfg.Twitter.AccessKey = a.AccessKey
	}
	if cfg.Twitter.AccessSecret == "" {
		cfg.Twitter.AccessSecret = a.AccessSecret
	}
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(profile string) (*Account, error)
	List() ([]*Account, error)
	Delete(profile string) error
	Exists(profile string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a manager backed by the system keyring when
// available, then an encrypted file, then the environment
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over the given stores, tried in order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(account *Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(account); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(profile string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(profile); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w: profile %s", ErrCredentialsNotFound, profile)
}

// RetrieveDefault prefers environment credentials, then the default
// profile, then any stored profile
func (m *Manager) RetrieveDefault() (*Account, error) {
	for _, store := range m.stores {
		if envStore, ok := store.(*EnvironmentStore); ok {
			if account, err := envStore.Retrieve(""); err == nil {
				return account, nil
			}
		}
	}

	if account, err := m.Retrieve(DefaultProfile); err == nil {
		return account, nil
	}

	accounts, err := m.List()
	if err == nil && len(accounts) > 0 {
		return accounts[0], nil
	}

	return nil, ErrCredentialsNotFound
}

// List returns all stored accounts from all stores, newest copy per profile
func (m *Manager) List() ([]*Account, error) {
	accountMap := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := accountMap[account.Profile]; !ok || account.LastModified.After(existing.LastModified) {
				accountMap[account.Profile] = account
			}
		}
	}

	var result []*Account
	for _, account := range accountMap {
		result = append(result, account)
	}

	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(profile string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(profile); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w: profile %s", ErrCredentialsNotFound, profile)
	}

	return nil
}

// getConfigDir returns the per-user configuration directory
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "twhydrate")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "twhydrate")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "twhydrate")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "twhydrate")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeAccount returns a copy of account with the secrets masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		Profile:        account.Profile,
		ScreenName:     account.ScreenName,
		ConsumerKey:    config.MaskSecret(account.ConsumerKey),
		ConsumerSecret: config.MaskSecret(account.ConsumerSecret),
		AccessKey:      config.MaskSecret(account.AccessKey),
		AccessSecret:   config.MaskSecret(account.AccessSecret),
		LastModified:   account.LastModified,
	}
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
