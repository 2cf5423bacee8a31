package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// MaxBatchSize is the largest batch the users/lookup endpoint accepts
	MaxBatchSize = 100

	// DefaultFollowerLimit is the per-root follower cap; 0 disables it
	DefaultFollowerLimit = 10000

	envPrefix = "TWHYDRATE_"
)

// Config holds all configuration options for twhydrate
type Config struct {
	// Twitter API credentials and endpoint
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// User lookup settings
	Lookup LookupConfig `yaml:"lookup" json:"lookup"`

	// Follower graph settings
	Followers FollowersConfig `yaml:"followers" json:"followers"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Optional SQLite sink
	Store StoreConfig `yaml:"store" json:"store"`

	// Rate limit handling
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry configuration for throttled or failing requests
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TwitterConfig holds the four OAuth1 secrets and API settings
type TwitterConfig struct {
	ConsumerKey    string        `yaml:"consumer_key" json:"consumer_key"`
	ConsumerSecret string        `yaml:"consumer_secret" json:"consumer_secret"`
	AccessKey      string        `yaml:"access_key" json:"access_key"`
	AccessSecret   string        `yaml:"access_secret" json:"access_secret"`
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
}

// LookupConfig holds user lookup configuration
type LookupConfig struct {
	BatchSize int `yaml:"batch_size" json:"batch_size"`
}

// FollowersConfig holds follower pull configuration
type FollowersConfig struct {
	// Limit stops paging a root once more than Limit followers were pulled. 0 = unlimited.
	Limit      int    `yaml:"limit" json:"limit"`
	PageSize   int    `yaml:"page_size" json:"page_size"`
	EdgeFile   string `yaml:"edge_file" json:"edge_file"`
	Checkpoint bool   `yaml:"checkpoint" json:"checkpoint"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	UsersFile string `yaml:"users_file" json:"users_file"`
}

// StoreConfig holds the SQLite sink configuration
type StoreConfig struct {
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
}

// RateLimitConfig holds rate limit handling configuration
type RateLimitConfig struct {
	WaitOnRateLimit bool          `yaml:"wait_on_rate_limit" json:"wait_on_rate_limit"`
	MaxWait         time.Duration `yaml:"max_wait" json:"max_wait"`
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	// MaxAttempts per request; 0 retries transient errors without limit
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier" json:"multiplier"`
}

// MetricsConfig holds the Prometheus listener configuration
type MetricsConfig struct {
	Listen string `yaml:"listen" json:"listen"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			BaseURL: "https://api.twitter.com",
			Timeout: 30 * time.Second,
		},
		Lookup: LookupConfig{
			BatchSize: MaxBatchSize,
		},
		Followers: FollowersConfig{
			Limit:    DefaultFollowerLimit,
			PageSize: 5000,
		},
		Output: OutputConfig{
			Directory: ".",
			UsersFile: "users.tsv",
		},
		RateLimit: RateLimitConfig{
			WaitOnRateLimit: true,
			MaxWait:         16 * time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts:    5,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     2 * time.Minute,
			Multiplier:     2.0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv(envPrefix + "CONSUMER_KEY"); v != "" {
		c.Twitter.ConsumerKey = v
	}
	if v := os.Getenv(envPrefix + "CONSUMER_SECRET"); v != "" {
		c.Twitter.ConsumerSecret = v
	}
	if v := os.Getenv(envPrefix + "ACCESS_KEY"); v != "" {
		c.Twitter.AccessKey = v
	}
	if v := os.Getenv(envPrefix + "ACCESS_SECRET"); v != "" {
		c.Twitter.AccessSecret = v
	}
	if v := os.Getenv(envPrefix + "BASE_URL"); v != "" {
		c.Twitter.BaseURL = v
	}

	if v := os.Getenv(envPrefix + "BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sBATCH_SIZE %q: %w", envPrefix, v, err)
		}
		c.Lookup.BatchSize = n
	}

	if v := os.Getenv(envPrefix + "FOLLOWER_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sFOLLOWER_LIMIT %q: %w", envPrefix, v, err)
		}
		c.Followers.Limit = n
	}
	if v := os.Getenv(envPrefix + "EDGE_FILE"); v != "" {
		c.Followers.EdgeFile = v
	}

	if v := os.Getenv(envPrefix + "OUTPUT_DIR"); v != "" {
		c.Output.Directory = v
	}
	if v := os.Getenv(envPrefix + "SQLITE_PATH"); v != "" {
		c.Store.SQLitePath = v
	}
	if v := os.Getenv(envPrefix + "WAIT_ON_RATE_LIMIT"); v != "" {
		c.RateLimit.WaitOnRateLimit = strings.ToLower(v) == "true"
	}
	if v := os.Getenv(envPrefix + "METRICS_LISTEN"); v != "" {
		c.Metrics.Listen = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(envPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"twhydrate.yaml",
		".twhydrate.yaml",
		".twhydrate.yml",
		filepath.Join(home, ".config", "twhydrate", "config.yaml"),
		filepath.Join(home, ".twhydrate.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are checked
// separately by HasCredentials since they may come from the credential store.
func (c *Config) Validate() error {
	var errs []error

	if c.Twitter.BaseURL == "" {
		errs = append(errs, errors.New("twitter base URL is required"))
	}
	if c.Twitter.Timeout <= 0 {
		errs = append(errs, errors.New("twitter timeout must be positive"))
	}

	if c.Lookup.BatchSize < 1 || c.Lookup.BatchSize > MaxBatchSize {
		errs = append(errs, fmt.Errorf("batch size must be between 1 and %d", MaxBatchSize))
	}

	if c.Followers.Limit < 0 {
		errs = append(errs, errors.New("follower limit cannot be negative"))
	}
	if c.Followers.PageSize < 1 || c.Followers.PageSize > 5000 {
		errs = append(errs, errors.New("follower page size must be between 1 and 5000"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.UsersFile == "" {
		errs = append(errs, errors.New("users file name is required"))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// HasCredentials reports whether all four OAuth secrets are set
func (c *Config) HasCredentials() bool {
	t := c.Twitter
	return t.ConsumerKey != "" && t.ConsumerSecret != "" && t.AccessKey != "" && t.AccessSecret != ""
}

// Masked returns a copy of the configuration with secrets masked for display
func (c *Config) Masked() *Config {
	masked := *c
	masked.Twitter.ConsumerKey = MaskSecret(c.Twitter.ConsumerKey)
	masked.Twitter.ConsumerSecret = MaskSecret(c.Twitter.ConsumerSecret)
	masked.Twitter.AccessKey = MaskSecret(c.Twitter.AccessKey)
	masked.Twitter.AccessSecret = MaskSecret(c.Twitter.AccessSecret)
	return &masked
}

// MaskSecret masks all but the first 4 and last 4 characters of a secret
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["batch-size"].(int); ok && v > 0 {
		c.Lookup.BatchSize = v
	}
	if v, ok := flags["limit"].(int); ok && v >= 0 {
		c.Followers.Limit = v
	}
	if v, ok := flags["edges"].(string); ok && v != "" {
		c.Followers.EdgeFile = v
	}
	if v, ok := flags["checkpoint"].(bool); ok {
		c.Followers.Checkpoint = v
	}
	if v, ok := flags["output-dir"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["users-file"].(string); ok && v != "" {
		c.Output.UsersFile = v
	}
	if v, ok := flags["sqlite"].(string); ok && v != "" {
		c.Store.SQLitePath = v
	}
	if v, ok := flags["metrics-listen"].(string); ok && v != "" {
		c.Metrics.Listen = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".twhydrate.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
