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
	// DefaultPerPage is the listing page size used when none is configured
	DefaultPerPage = 100

	// MaxPerPage is the largest page size the Flickr listing methods accept
	MaxPerPage = 500
)

// Config holds all configuration options for flickrdl
type Config struct {
	// Flickr application credentials and API settings
	Flickr FlickrConfig `yaml:"flickr" json:"flickr"`

	// Output layout
	Output OutputConfig `yaml:"output" json:"output"`

	// Media download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Pacing between remote calls
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// FlickrConfig holds the API key pair and listing options
type FlickrConfig struct {
	APIKey    string `yaml:"api_key" json:"api_key"`
	APISecret string `yaml:"api_secret" json:"api_secret"`
	PerPage   int    `yaml:"per_page" json:"per_page"`
	Endpoint  string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Account   string `yaml:"account,omitempty" json:"account,omitempty"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory   string `yaml:"base_directory" json:"base_directory"`
	FailIfExists    bool   `yaml:"fail_if_exists" json:"fail_if_exists"`
	DirPermissions  string `yaml:"dir_permissions" json:"dir_permissions"`
	FilePermissions string `yaml:"file_permissions" json:"file_permissions"`
	SkipIndex       bool   `yaml:"skip_index" json:"skip_index"`
}

// DownloadConfig holds media download configuration
type DownloadConfig struct {
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
	AllowedContentTypes []string      `yaml:"allowed_content_types" json:"allowed_content_types"`
	SkipVideos          bool          `yaml:"skip_videos" json:"skip_videos"`
	SkipMedia           bool          `yaml:"skip_media" json:"skip_media"`
}

// RateLimitConfig holds the fixed delay inserted between remote calls
type RateLimitConfig struct {
	RequestDelay time.Duration `yaml:"request_delay" json:"request_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	JSON  bool   `yaml:"json" json:"json"`
}

// DefaultAllowedContentTypes are the media types accepted by the media fetcher
var DefaultAllowedContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/tiff",
	"video/mp4",
	"video/quicktime",
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Flickr: FlickrConfig{
			PerPage: DefaultPerPage,
		},
		Output: OutputConfig{
			BaseDirectory:   ".",
			FailIfExists:    false,
			DirPermissions:  "0755",
			FilePermissions: "0644",
		},
		Download: DownloadConfig{
			Timeout:             60 * time.Second,
			AllowedContentTypes: append([]string(nil), DefaultAllowedContentTypes...),
		},
		RateLimit: RateLimitConfig{
			RequestDelay: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv overrides values from FLICKRDL_* environment variables
func (c *Config) LoadFromEnv() error {
	if key := os.Getenv("FLICKRDL_API_KEY"); key != "" {
		c.Flickr.APIKey = key
	}
	if secret := os.Getenv("FLICKRDL_API_SECRET"); secret != "" {
		c.Flickr.APISecret = secret
	}
	if account := os.Getenv("FLICKRDL_ACCOUNT"); account != "" {
		c.Flickr.Account = account
	}
	if perPage := os.Getenv("FLICKRDL_PER_PAGE"); perPage != "" {
		val, err := strconv.Atoi(perPage)
		if err != nil {
			return fmt.Errorf("invalid FLICKRDL_PER_PAGE %q: %w", perPage, err)
		}
		c.Flickr.PerPage = val
	}
	if outputDir := os.Getenv("FLICKRDL_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if delay := os.Getenv("FLICKRDL_REQUEST_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid FLICKRDL_REQUEST_DELAY %q: %w", delay, err)
		}
		c.RateLimit.RequestDelay = d
	}
	if logLevel := os.Getenv("FLICKRDL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("FLICKRDL_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
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

// FindConfigFile searches the standard locations and returns the first hit
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".flickrdl.yaml",
		".flickrdl.yml",
		filepath.Join(home, ".config", "flickrdl", "config.yaml"),
		filepath.Join(home, ".config", "flickrdl", "config.yml"),
		filepath.Join(home, ".flickrdl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Flickr.APIKey == "" {
		errs = append(errs, errors.New("flickr API key is required"))
	}
	if c.Flickr.APISecret == "" {
		errs = append(errs, errors.New("flickr API secret is required"))
	}
	if c.Flickr.PerPage <= 0 {
		errs = append(errs, errors.New("per_page must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if _, err := ParsePermissions(c.Output.DirPermissions); err != nil {
		errs = append(errs, fmt.Errorf("dir_permissions: %w", err))
	}
	if _, err := ParsePermissions(c.Output.FilePermissions); err != nil {
		errs = append(errs, fmt.Errorf("file_permissions: %w", err))
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if len(c.Download.AllowedContentTypes) == 0 {
		errs = append(errs, errors.New("at least one allowed content type is required"))
	}

	if c.RateLimit.RequestDelay < 0 {
		errs = append(errs, errors.New("request delay cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// EffectivePerPage returns the configured page size capped at MaxPerPage
func (c *Config) EffectivePerPage() int {
	if c.Flickr.PerPage > MaxPerPage {
		return MaxPerPage
	}
	return c.Flickr.PerPage
}

// ParsePermissions parses an octal permission string such as "0755"
func ParsePermissions(s string) (os.FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid permissions %q", s)
	}
	if v > 0o777 {
		return 0, fmt.Errorf("permissions %q out of range", s)
	}
	return os.FileMode(v), nil
}

// Save writes the configuration to path as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file holds the API secret.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if key, ok := flags["api-key"].(string); ok && key != "" {
		c.Flickr.APIKey = key
	}
	if secret, ok := flags["api-secret"].(string); ok && secret != "" {
		c.Flickr.APISecret = secret
	}
	if account, ok := flags["account"].(string); ok && account != "" {
		c.Flickr.Account = account
	}
	if perPage, ok := flags["per-page"].(int); ok && perPage > 0 {
		c.Flickr.PerPage = perPage
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if failIfExists, ok := flags["fail-if-exists"].(bool); ok {
		c.Output.FailIfExists = failIfExists
	}
	if delay, ok := flags["request-delay"].(time.Duration); ok && delay >= 0 {
		c.RateLimit.RequestDelay = delay
	}
	if skipVideos, ok := flags["skip-videos"].(bool); ok {
		c.Download.SkipVideos = skipVideos
	}
	if skipMedia, ok := flags["skip-media"].(bool); ok {
		c.Download.SkipMedia = skipMedia
	}
	if skipIndex, ok := flags["skip-index"].(bool); ok {
		c.Output.SkipIndex = skipIndex
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Resolve builds the configuration from all sources without validating it.
// Precedence: command line flags > environment > .env files > config file > defaults
func Resolve(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".flickrdl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	return config, nil
}

// Load resolves and validates the configuration
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	config, err := Resolve(configPath, flags)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
