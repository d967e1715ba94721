package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeCapability()
	if err := c.normalizePrompts(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StorageRoot) == "" {
		c.Paths.StorageRoot = defaultStorageRoot
		if value, ok := os.LookupEnv("RECIPES_ROOT"); ok && strings.TrimSpace(value) != "" {
			c.Paths.StorageRoot = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Paths.StorageRoot, err = expandPath(c.Paths.StorageRoot); err != nil {
		return fmt.Errorf("paths.storage_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StorageRoot, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockDir) == "" {
		c.Paths.LockDir = filepath.Join(c.Paths.StorageRoot, "locks")
	}
	if c.Paths.LockDir, err = expandPath(c.Paths.LockDir); err != nil {
		return fmt.Errorf("paths.lock_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFilesystem
	}
	c.Storage.Partition = strings.Trim(strings.TrimSpace(c.Storage.Partition), "/")
	if c.Storage.Partition == "" {
		c.Storage.Partition = defaultPartition
	}
	if strings.TrimSpace(c.Storage.SQLitePath) == "" {
		c.Storage.SQLitePath = filepath.Join(c.Paths.StorageRoot, defaultSQLiteFilename)
	}
	var err error
	if c.Storage.SQLitePath, err = expandPath(c.Storage.SQLitePath); err != nil {
		return fmt.Errorf("storage.sqlite_path: %w", err)
	}
	c.Storage.RedisAddr = strings.TrimSpace(c.Storage.RedisAddr)
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.Prefix = strings.Trim(strings.TrimSpace(c.Storage.Prefix), "/")
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	return nil
}

func (c *Config) normalizeCapability() {
	c.Capability.Provider = strings.ToLower(strings.TrimSpace(c.Capability.Provider))
	if c.Capability.Provider == "" {
		c.Capability.Provider = defaultProvider
	}
	c.Capability.TextProvider = strings.ToLower(strings.TrimSpace(c.Capability.TextProvider))
	if c.Capability.TextProvider == "" {
		c.Capability.TextProvider = c.Capability.Provider
	}
	c.Capability.APIKey = strings.TrimSpace(c.Capability.APIKey)
	if c.Capability.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Capability.APIKey = strings.TrimSpace(value)
		}
	}
	c.Capability.AnthropicAPIKey = strings.TrimSpace(c.Capability.AnthropicAPIKey)
	if c.Capability.AnthropicAPIKey == "" {
		if value, ok := os.LookupEnv("ANTHROPIC_API_KEY"); ok {
			c.Capability.AnthropicAPIKey = strings.TrimSpace(value)
		}
	}
	c.Capability.BaseURL = strings.TrimSpace(c.Capability.BaseURL)
	if c.Capability.BaseURL == "" {
		c.Capability.BaseURL = defaultCapabilityBaseURL
	}
	c.Capability.ExtractionModel = strings.TrimSpace(c.Capability.ExtractionModel)
	c.Capability.ImageModel = strings.TrimSpace(c.Capability.ImageModel)
	c.Capability.MarketingModel = strings.TrimSpace(c.Capability.MarketingModel)
	c.Capability.AnthropicModel = strings.TrimSpace(c.Capability.AnthropicModel)
	if c.Capability.AnthropicModel == "" {
		c.Capability.AnthropicModel = defaultAnthropicModel
	}
	if c.Capability.MaxTokens <= 0 {
		c.Capability.MaxTokens = defaultMaxTokens
	}
}

func (c *Config) normalizePrompts() error {
	if strings.TrimSpace(c.Prompts.Dir) == "" {
		c.Prompts.Dir = ""
		return nil
	}
	var err error
	if c.Prompts.Dir, err = expandPath(c.Prompts.Dir); err != nil {
		return fmt.Errorf("prompts.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.WebhookURL = strings.TrimSpace(c.Notifications.WebhookURL)
	if c.Notifications.WebhookURL == "" {
		if value, ok := os.LookupEnv("N8N_WEBHOOK_URL"); ok {
			c.Notifications.WebhookURL = strings.TrimSpace(value)
		}
	}
	c.Notifications.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Notifications.PublicBaseURL), "/")
	if c.Notifications.PublicBaseURL == "" {
		if value, ok := os.LookupEnv("API_BASE_URL"); ok {
			c.Notifications.PublicBaseURL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
