package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Scrape.URL = "https://example.com/gallery"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 4, config.Scrape.Threads)
	assert.Equal(t, ".", config.Scrape.OutputDir)
	assert.False(t, config.Scrape.SkipDuplicates)
	assert.Equal(t, 30*time.Second, config.HTTP.Timeout)
	assert.Equal(t, 2, config.Classifier.MinGroupSize)
	assert.Contains(t, config.Classifier.Denylist, "logo")
	assert.Equal(t, "info", config.Logging.Level)

	// The default denylist must not be shared with the returned config
	config.Classifier.Denylist[0] = "changed"
	assert.Equal(t, "icon", DefaultDenylist[0])
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GALLERYSCRAPER_OUTPUT_DIR", "/tmp/test-gallery")
	t.Setenv("GALLERYSCRAPER_THREADS", "8")
	t.Setenv("GALLERYSCRAPER_SKIP_DUPLICATES", "true")
	t.Setenv("GALLERYSCRAPER_TIMEOUT", "5s")
	t.Setenv("GALLERYSCRAPER_MIN_AREA", "900")
	t.Setenv("GALLERYSCRAPER_DENYLIST", "logo, badge ,")
	t.Setenv("GALLERYSCRAPER_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "/tmp/test-gallery", config.Scrape.OutputDir)
	assert.Equal(t, 8, config.Scrape.Threads)
	assert.True(t, config.Scrape.SkipDuplicates)
	assert.Equal(t, 5*time.Second, config.HTTP.Timeout)
	assert.Equal(t, 900, config.Classifier.MinArea)
	assert.Equal(t, []string{"logo", "badge"}, config.Classifier.Denylist)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("GALLERYSCRAPER_THREADS", "many")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GALLERYSCRAPER_THREADS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "warning level accepted", mutate: func(c *Config) { c.Logging.Level = "WARNING" }},
		{name: "missing url", mutate: func(c *Config) { c.Scrape.URL = "" }, wantErr: "page URL is required"},
		{name: "relative url", mutate: func(c *Config) { c.Scrape.URL = "/gallery" }, wantErr: "absolute http(s) URL"},
		{name: "ftp url", mutate: func(c *Config) { c.Scrape.URL = "ftp://example.com/x" }, wantErr: "absolute http(s) URL"},
		{name: "zero threads", mutate: func(c *Config) { c.Scrape.Threads = 0 }, wantErr: "threads must be positive"},
		{name: "too many threads", mutate: func(c *Config) { c.Scrape.Threads = 65 }, wantErr: "should not exceed"},
		{name: "empty output", mutate: func(c *Config) { c.Scrape.OutputDir = "" }, wantErr: "output directory"},
		{name: "bad timeout", mutate: func(c *Config) { c.HTTP.Timeout = 0 }, wantErr: "timeout"},
		{name: "negative retries", mutate: func(c *Config) { c.HTTP.MaxRetries = -1 }, wantErr: "retries"},
		{name: "group size", mutate: func(c *Config) { c.Classifier.MinGroupSize = 1 }, wantErr: "group size"},
		{name: "invalid log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Scrape.Threads = 0
	cfg.Logging.Level = "nope"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threads must be positive")
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	config.MergeCommandLineFlags(map[string]interface{}{
		"url":             "https://example.com/a",
		"output-dir":      "/flag/output",
		"threads":         7,
		"skip-duplicates": true,
		"timeout":         10 * time.Second,
		"retries":         1,
		"log-level":       "DEBUG",
		"quiet":           true,
	})

	assert.Equal(t, "https://example.com/a", config.Scrape.URL)
	assert.Equal(t, "/flag/output", config.Scrape.OutputDir)
	assert.Equal(t, 7, config.Scrape.Threads)
	assert.True(t, config.Scrape.SkipDuplicates)
	assert.Equal(t, 10*time.Second, config.HTTP.Timeout)
	assert.Equal(t, 1, config.HTTP.MaxRetries)
	assert.Equal(t, "DEBUG", config.Logging.Level)
	assert.True(t, config.Logging.Quiet)
}

func TestSaveAndLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := validConfig()
	config.Scrape.Threads = 9
	config.Classifier.MinArea = 100
	require.NoError(t, config.Save(configPath))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(configPath))

	assert.Equal(t, 9, loaded.Scrape.Threads)
	assert.Equal(t, 100, loaded.Classifier.MinArea)
	assert.Equal(t, "https://example.com/gallery", loaded.Scrape.URL)
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	err := config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDurationParsing(t *testing.T) {
	yamlContent := `
http:
  timeout: 45s
  retry_delay: 500ms
classifier:
  denylist: [logo, icon]
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(yamlContent), &cfg))

	assert.Equal(t, 45*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.HTTP.RetryDelay)
	assert.Equal(t, []string{"logo", "icon"}, cfg.Classifier.Denylist)
}

func TestLoad(t *testing.T) {
	t.Run("precedence order", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := `
scrape:
  url: https://file.example.com/
  output_dir: /file/output
  threads: 2
logging:
  level: warning
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
		t.Setenv("GALLERYSCRAPER_OUTPUT_DIR", "/env/output")
		t.Setenv("GALLERYSCRAPER_THREADS", "6")

		cfg, err := Load(configPath, map[string]interface{}{"threads": 3})
		require.NoError(t, err)

		assert.Equal(t, "https://file.example.com/", cfg.Scrape.URL) // file
		assert.Equal(t, "/env/output", cfg.Scrape.OutputDir)         // env over file
		assert.Equal(t, 3, cfg.Scrape.Threads)                       // flag over env
		assert.Equal(t, "warning", cfg.Logging.Level)
	})

	t.Run("validation failure", func(t *testing.T) {
		cfg, err := Load("", map[string]interface{}{"url": "not a url"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
		assert.Nil(t, cfg)
	})

	t.Run("loads .env file", func(t *testing.T) {
		tempDir := t.TempDir()
		oldDir, err := os.Getwd()
		require.NoError(t, err)
		defer os.Chdir(oldDir)
		require.NoError(t, os.Chdir(tempDir))

		require.NoError(t, os.WriteFile(".env", []byte("GALLERYSCRAPER_THREADS=12\n"), 0644))
		t.Setenv("GALLERYSCRAPER_THREADS", "")
		os.Unsetenv("GALLERYSCRAPER_THREADS")

		cfg, err := Load("", map[string]interface{}{"url": "https://example.com/"})
		require.NoError(t, err)
		assert.Equal(t, 12, cfg.Scrape.Threads)
	})
}

func TestResolveSkipsValidation(t *testing.T) {
	cfg, err := Resolve("", map[string]interface{}{"threads": 0})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Scrape.Threads)
	assert.Error(t, cfg.Validate())
}

func TestValidateSettingsIgnoresURL(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.ValidateSettings())
	assert.ErrorContains(t, cfg.Validate(), "page URL is required")

	cfg.Classifier.MinArea = -1
	assert.ErrorContains(t, cfg.ValidateSettings(), "minimum area")
}
