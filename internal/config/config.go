package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StorageRoot string `toml:"storage_root"`
	LogDir      string `toml:"log_dir"`
	LockDir     string `toml:"lock_dir"`
}

// Storage selects and configures the blob store backend.
type Storage struct {
	Backend       string `toml:"backend"`
	Partition     string `toml:"partition"`
	SQLitePath    string `toml:"sqlite_path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Bucket        string `toml:"bucket"`
	Prefix        string `toml:"prefix"`
	Region        string `toml:"region"`
	Endpoint      string `toml:"endpoint"`
}

// Capability contains the generative model connection settings.
type Capability struct {
	Provider              string  `toml:"provider"`
	TextProvider          string  `toml:"text_provider"`
	APIKey                string  `toml:"api_key"`
	BaseURL               string  `toml:"base_url"`
	ExtractionModel       string  `toml:"extraction_model"`
	ImageModel            string  `toml:"image_model"`
	MarketingModel        string  `toml:"marketing_model"`
	ExtractionTemperature float64 `toml:"extraction_temperature"`
	TimeoutSeconds        int     `toml:"timeout_seconds"`
	RetryMaxAttempts      int     `toml:"retry_max_attempts"`
	Referer               string  `toml:"referer"`
	Title                 string  `toml:"title"`
	AnthropicAPIKey       string  `toml:"anthropic_api_key"`
	AnthropicModel        string  `toml:"anthropic_model"`
	MaxTokens             int     `toml:"max_tokens"`
}

// Prompts configures where stage instructions are read from.
type Prompts struct {
	// Dir optionally overrides the embedded prompt files.
	Dir string `toml:"dir"`
}

// Pipeline contains orchestrator behaviour switches.
type Pipeline struct {
	// Resume skips stages already recorded as complete.
	Resume bool `toml:"resume"`
}

// Notifications contains webhook and ntfy settings.
type Notifications struct {
	WebhookURL     string `toml:"webhook_url"`
	PublicBaseURL  string `toml:"public_base_url"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for recipeforge.
//
// Configuration sections by subsystem:
//   - Paths: storage root, log and lock directories
//   - Storage: blob store backend and partition
//   - Capability: model provider, model ids, timeouts
//   - Prompts: optional prompt override directory
//   - Pipeline: orchestrator resume behaviour
//   - Notifications: webhook and ntfy endpoints
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Storage       Storage       `toml:"storage"`
	Capability    Capability    `toml:"capability"`
	Prompts       Prompts       `toml:"prompts"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		if env, ok := os.LookupEnv("RECIPEFORGE_CONFIG"); ok {
			path = strings.TrimSpace(env)
		}
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("recipeforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the CLI and filesystem backends write into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.LockDir}
	if c.Storage.Backend == BackendFilesystem {
		dirs = append(dirs, c.Paths.StorageRoot)
	}
	if c.Storage.Backend == BackendSQLite {
		dirs = append(dirs, filepath.Dir(c.Storage.SQLitePath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// CapabilityTimeout returns the per-call deadline applied by capability clients.
func (c *Config) CapabilityTimeout() time.Duration {
	return time.Duration(c.Capability.TimeoutSeconds) * time.Second
}

// NotificationTimeout returns the HTTP timeout for webhook and ntfy requests.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// ModelFor returns the model id configured for the named pipeline stage.
func (c *Config) ModelFor(stage string) string {
	switch stage {
	case "thumbnail":
		return c.Capability.ImageModel
	case "marketing":
		if strings.TrimSpace(c.Capability.MarketingModel) != "" {
			return c.Capability.MarketingModel
		}
		return c.Capability.ExtractionModel
	default:
		return c.Capability.ExtractionModel
	}
}
