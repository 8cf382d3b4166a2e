package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for a single gallery scrape
type Config struct {
	// The page to scrape and where to put the images
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// HTTP client settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Gallery detection tuning
	Classifier ClassifierConfig `yaml:"classifier" json:"classifier"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ScrapeConfig holds the invocation-scoped parameters
type ScrapeConfig struct {
	URL            string `yaml:"url" json:"url"`
	OutputDir      string `yaml:"output_dir" json:"output_dir"`
	Threads        int    `yaml:"threads" json:"threads"`
	SkipDuplicates bool   `yaml:"skip_duplicates" json:"skip_duplicates"`
}

// HTTPConfig holds page and image fetching configuration
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent  string        `yaml:"user_agent" json:"user_agent"`
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// ClassifierConfig holds the heuristic thresholds used to pick the gallery.
// The defaults are starting points, not derived values.
type ClassifierConfig struct {
	MinGroupSize int      `yaml:"min_group_size" json:"min_group_size"`
	MinArea      int      `yaml:"min_area" json:"min_area"`
	Denylist     []string `yaml:"denylist" json:"denylist"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	Quiet bool   `yaml:"quiet" json:"quiet"`
}

// DefaultDenylist lists marker tokens of images that are never gallery content
var DefaultDenylist = []string{
	"icon", "logo", "avatar", "thumbnail-nav", "ad",
	"sprite", "banner", "emoji", "spinner", "pixel",
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Scrape: ScrapeConfig{
			OutputDir:      ".",
			Threads:        4,
			SkipDuplicates: false,
		},
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			UserAgent:  "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			MaxRetries: 5,
			RetryDelay: 2 * time.Second,
		},
		Classifier: ClassifierConfig{
			MinGroupSize: 2,
			MinArea:      2500,
			Denylist:     append([]string(nil), DefaultDenylist...),
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
			Quiet: false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("GALLERYSCRAPER_OUTPUT_DIR"); v != "" {
		c.Scrape.OutputDir = v
	}
	if v := os.Getenv("GALLERYSCRAPER_THREADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GALLERYSCRAPER_THREADS: %w", err)
		}
		c.Scrape.Threads = n
	}
	if v := os.Getenv("GALLERYSCRAPER_SKIP_DUPLICATES"); v != "" {
		c.Scrape.SkipDuplicates = strings.ToLower(v) == "true"
	}

	if v := os.Getenv("GALLERYSCRAPER_USER_AGENT"); v != "" {
		c.HTTP.UserAgent = v
	}
	if v := os.Getenv("GALLERYSCRAPER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GALLERYSCRAPER_TIMEOUT: %w", err)
		}
		c.HTTP.Timeout = d
	}
	if v := os.Getenv("GALLERYSCRAPER_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GALLERYSCRAPER_MAX_RETRIES: %w", err)
		}
		c.HTTP.MaxRetries = n
	}

	if v := os.Getenv("GALLERYSCRAPER_MIN_GROUP_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GALLERYSCRAPER_MIN_GROUP_SIZE: %w", err)
		}
		c.Classifier.MinGroupSize = n
	}
	if v := os.Getenv("GALLERYSCRAPER_MIN_AREA"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GALLERYSCRAPER_MIN_AREA: %w", err)
		}
		c.Classifier.MinArea = n
	}
	if v := os.Getenv("GALLERYSCRAPER_DENYLIST"); v != "" {
		c.Classifier.Denylist = splitList(v)
	}

	if v := os.Getenv("GALLERYSCRAPER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GALLERYSCRAPER_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
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

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".galleryscraper.yaml",
		".galleryscraper.yml",
		filepath.Join(home, ".config", "galleryscraper", "config.yaml"),
		filepath.Join(home, ".config", "galleryscraper", "config.yml"),
		filepath.Join(home, ".galleryscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid for a run
func (c *Config) Validate() error {
	var errs []error

	if c.Scrape.URL == "" {
		errs = append(errs, errors.New("page URL is required"))
	} else if u, err := url.Parse(c.Scrape.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("page URL must be an absolute http(s) URL: %q", c.Scrape.URL))
	}
	if err := c.ValidateSettings(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ValidateSettings checks everything except the page URL, which usually
// comes from the command line rather than a config file
func (c *Config) ValidateSettings() error {
	var errs []error

	if c.Scrape.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Scrape.Threads <= 0 {
		errs = append(errs, errors.New("threads must be positive"))
	}
	if c.Scrape.Threads > 64 {
		errs = append(errs, errors.New("threads should not exceed 64"))
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}
	if c.HTTP.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.HTTP.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}

	if c.Classifier.MinGroupSize < 2 {
		errs = append(errs, errors.New("minimum group size must be at least 2"))
	}
	if c.Classifier.MinArea < 0 {
		errs = append(errs, errors.New("minimum area cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "warning": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level: %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
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

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map override the loaded values.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["url"].(string); ok && v != "" {
		c.Scrape.URL = v
	}
	if v, ok := flags["output-dir"].(string); ok && v != "" {
		c.Scrape.OutputDir = v
	}
	if v, ok := flags["threads"].(int); ok {
		c.Scrape.Threads = v
	}
	if v, ok := flags["skip-duplicates"].(bool); ok {
		c.Scrape.SkipDuplicates = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok {
		c.HTTP.Timeout = v
	}
	if v, ok := flags["retries"].(int); ok {
		c.HTTP.MaxRetries = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
	if v, ok := flags["quiet"].(bool); ok {
		c.Logging.Quiet = v
	}
}

// Load loads configuration from all sources with proper precedence and
// validates it for a run
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

// Resolve layers all configuration sources without validating the result.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Resolve(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".galleryscraper.env"))

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

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
