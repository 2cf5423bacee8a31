package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"twhydrate/pkg/config"
)

func testAccount(profile string) *Account {
	return &Account{
		Profile:        profile,
		ConsumerKey:    "consumer_key_12345",
		ConsumerSecret: "consumer_secret_67890",
		AccessKey:      "access_key_abcdef",
		AccessSecret:   "access_secret_ghijkl",
	}
}

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := testAccount("research")
	require.NoError(t, manager.Store(account))
	assert.False(t, account.LastModified.IsZero())

	retrieved, err := manager.Retrieve("research")
	require.NoError(t, err)
	assert.Equal(t, account.ConsumerKey, retrieved.ConsumerKey)
	assert.Equal(t, account.AccessSecret, retrieved.AccessSecret)

	accounts, err := manager.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, manager.Delete("research"))
	_, err = manager.Retrieve("research")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Equal(t, 0, mockStore.Count())
}

func TestStoreRejectsIncompleteAccount(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := testAccount("partial")
	account.AccessSecret = ""
	err := manager.Store(account)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access secret")
	assert.Equal(t, 0, mockStore.Count())
}

func TestManagerFallsThroughStores(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	working := NewMockStore()

	manager := NewManagerWithStores(broken, working)
	require.NoError(t, manager.Store(testAccount(DefaultProfile)))
	assert.Equal(t, 1, working.Count())

	account, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile, account.Profile)
}

func TestSanitizeAccount(t *testing.T) {
	account := testAccount("research")
	sanitized := SanitizeAccount(account)

	assert.Equal(t, "research", sanitized.Profile)
	assert.Equal(t, "cons...2345", sanitized.ConsumerKey)
	assert.NotEqual(t, account.AccessSecret, sanitized.AccessSecret)
	assert.Nil(t, SanitizeAccount(nil))
}

func TestApplyKeepsExplicitValues(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Twitter.ConsumerKey = "from-flag"

	testAccount("research").Apply(cfg)

	assert.Equal(t, "from-flag", cfg.Twitter.ConsumerKey)
	assert.Equal(t, "consumer_secret_67890", cfg.Twitter.ConsumerSecret)
	assert.True(t, cfg.HasCredentials())
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv(passphraseEnv, "test_passphrase_123")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(testAccount("one")))
	require.NoError(t, store.Store(testAccount("two")))

	retrieved, err := store.Retrieve("one")
	require.NoError(t, err)
	assert.Equal(t, "access_key_abcdef", retrieved.AccessKey)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(content, []byte("consumer_secret_67890")), "file contains plaintext secret")

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	require.NoError(t, store.Delete("one"))
	assert.False(t, store.Exists("one"))
	require.NoError(t, store.Delete("two"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file removed with last profile")
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv(passphraseEnv, "first")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(testAccount("one")))

	t.Setenv(passphraseEnv, "second")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve("one")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	t.Setenv(EnvConsumerKey, "ck")
	t.Setenv(EnvConsumerSecret, "cs")
	t.Setenv(EnvAccessKey, "ak")
	t.Setenv(EnvAccessSecret, "as")

	account, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "env", account.Profile)
	assert.Equal(t, "ak", account.AccessKey)
	assert.True(t, store.Exists(""))

	assert.ErrorIs(t, store.Store(account), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("env"), ErrStoreUnavailable)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(testAccount("one")))
	require.NoError(t, store.Store(testAccount("two")))
	assert.True(t, store.Exists("one"))

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	require.NoError(t, store.Delete("one"))
	_, err = store.Retrieve("one")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	accounts, err = store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "two", accounts[0].Profile)
}

func TestMockStoreErrorInjection(t *testing.T) {
	store := NewMockStore()
	store.ListError = errors.New("injected error")

	_, err := store.List()
	assert.EqualError(t, err, "injected error")
}

func TestShowCredentialGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowCredentialGuide(&buf)
	assert.Contains(t, buf.String(), EnvAccessSecret)
}
