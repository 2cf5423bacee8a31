package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Lookup.BatchSize != 100 {
		t.Errorf("Expected default batch size to be 100, got %d", config.Lookup.BatchSize)
	}

	if config.Followers.Limit != 10000 {
		t.Errorf("Expected default follower limit to be 10000, got %d", config.Followers.Limit)
	}

	if !config.RateLimit.WaitOnRateLimit {
		t.Error("Expected wait on rate limit to be enabled by default")
	}

	if config.Output.UsersFile != "users.tsv" {
		t.Errorf("Expected default users file to be users.tsv, got %s", config.Output.UsersFile)
	}

	assert.NoError(t, config.Validate())
	assert.False(t, config.HasCredentials())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TWHYDRATE_CONSUMER_KEY", "ck")
	t.Setenv("TWHYDRATE_CONSUMER_SECRET", "cs")
	t.Setenv("TWHYDRATE_ACCESS_KEY", "ak")
	t.Setenv("TWHYDRATE_ACCESS_SECRET", "as")
	t.Setenv("TWHYDRATE_BATCH_SIZE", "50")
	t.Setenv("TWHYDRATE_FOLLOWER_LIMIT", "0")
	t.Setenv("TWHYDRATE_EDGE_FILE", "/tmp/edges.tsv")
	t.Setenv("TWHYDRATE_WAIT_ON_RATE_LIMIT", "false")
	t.Setenv("TWHYDRATE_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.True(t, config.HasCredentials())
	assert.Equal(t, 50, config.Lookup.BatchSize)
	assert.Equal(t, 0, config.Followers.Limit)
	assert.Equal(t, "/tmp/edges.tsv", config.Followers.EdgeFile)
	assert.False(t, config.RateLimit.WaitOnRateLimit)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("TWHYDRATE_FOLLOWER_LIMIT", "lots")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOLLOWER_LIMIT")
}

func TestLoadFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "twhydrate.yaml")

	configContent := `
twitter:
  consumer_key: "file-ck"
  consumer_secret: "file-cs"
  access_key: "file-ak"
  access_secret: "file-as"
  timeout: 10s
lookup:
  batch_size: 25
followers:
  limit: 500
  edge_file: "edges.tsv"
logging:
  level: "warn"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(configPath))

	assert.Equal(t, "file-ck", config.Twitter.ConsumerKey)
	assert.Equal(t, 10*time.Second, config.Twitter.Timeout)
	assert.Equal(t, 25, config.Lookup.BatchSize)
	assert.Equal(t, 500, config.Followers.Limit)
	assert.Equal(t, "edges.tsv", config.Followers.EdgeFile)
	assert.Equal(t, "warn", config.Logging.Level)
	// Untouched keys keep their defaults
	assert.Equal(t, "https://api.twitter.com", config.Twitter.BaseURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"batch too large", func(c *Config) { c.Lookup.BatchSize = 101 }, "batch size"},
		{"batch zero", func(c *Config) { c.Lookup.BatchSize = 0 }, "batch size"},
		{"negative limit", func(c *Config) { c.Followers.Limit = -1 }, "follower limit"},
		{"unlimited followers", func(c *Config) { c.Followers.Limit = 0 }, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
		{"empty output dir", func(c *Config) { c.Output.Directory = "" }, "output directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"batch-size": 10,
		"limit":      0,
		"edges":      "out/edges.tsv",
		"checkpoint": true,
		"log-level":  "error",
	})

	assert.Equal(t, 10, config.Lookup.BatchSize)
	assert.Equal(t, 0, config.Followers.Limit)
	assert.Equal(t, "out/edges.tsv", config.Followers.EdgeFile)
	assert.True(t, config.Followers.Checkpoint)
	assert.Equal(t, "error", config.Logging.Level)
}

func TestMaskedHidesSecrets(t *testing.T) {
	config := DefaultConfig()
	config.Twitter.ConsumerKey = "abcdefghijklmnop"
	config.Twitter.AccessSecret = "short"

	masked := config.Masked()
	assert.Equal(t, "abcd...mnop", masked.Twitter.ConsumerKey)
	assert.Equal(t, "***", masked.Twitter.AccessSecret)
	assert.Equal(t, "", masked.Twitter.ConsumerSecret)
	// Original untouched
	assert.Equal(t, "abcdefghijklmnop", config.Twitter.ConsumerKey)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := DefaultConfig()
	config.Followers.Limit = 42
	require.NoError(t, config.Save(path))

	reloaded := DefaultConfig()
	reloaded.Followers.Limit = 1
	require.NoError(t, reloaded.LoadFromFile(path))
	assert.Equal(t, 42, reloaded.Followers.Limit)
}
