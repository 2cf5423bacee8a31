package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore; the same names the
// config layer reads
const (
	EnvConsumerKey    = "TWHYDRATE_CONSUMER_KEY"
	EnvConsumerSecret = "TWHYDRATE_CONSUMER_SECRET"
	EnvAccessKey      = "TWHYDRATE_ACCESS_KEY"
	EnvAccessSecret   = "TWHYDRATE_ACCESS_SECRET"
)

// EnvironmentStore is a read-only store over TWHYDRATE_* variables
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment credentials under any profile name,
// "env" when none is given
func (e *EnvironmentStore) Retrieve(profile string) (*Account, error) {
	account := &Account{
		Profile:        profile,
		ConsumerKey:    os.Getenv(EnvConsumerKey),
		ConsumerSecret: os.Getenv(EnvConsumerSecret),
		AccessKey:      os.Getenv(EnvAccessKey),
		AccessSecret:   os.Getenv(EnvAccessSecret),
		LastModified:   time.Now(),
	}
	if account.Profile == "" {
		account.Profile = "env"
	}
	if account.Validate() != nil {
		return nil, ErrCredentialsNotFound
	}
	return account, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(profile string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(profile string) bool {
	_, err := e.Retrieve(profile)
	return err == nil
}
