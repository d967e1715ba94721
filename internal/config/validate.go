package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateCapability(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendFilesystem, BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("storage.redis_addr must be set when storage.backend is redis")
		}
		if c.Storage.RedisDB < 0 {
			return errors.New("storage.redis_db must be non-negative")
		}
	case BackendS3, BackendGCS:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket must be set when storage.backend is %s", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("storage.backend must be one of filesystem, memory, sqlite, redis, s3, gcs (got %q)", c.Storage.Backend)
	}
	if strings.Contains(c.Storage.Partition, "/") {
		return errors.New("storage.partition must be a single path segment")
	}
	return nil
}

func (c *Config) validateCapability() error {
	for key, provider := range map[string]string{
		"capability.provider":      c.Capability.Provider,
		"capability.text_provider": c.Capability.TextProvider,
	} {
		switch provider {
		case ProviderOpenRouter, ProviderAnthropic:
		default:
			return fmt.Errorf("%s must be openrouter or anthropic (got %q)", key, provider)
		}
	}
	if c.Capability.Provider != ProviderOpenRouter {
		return errors.New("capability.provider must be openrouter because thumbnail generation needs image output")
	}
	if c.Capability.ExtractionModel == "" {
		return errors.New("capability.extraction_model must be set")
	}
	if c.Capability.ImageModel == "" {
		return errors.New("capability.image_model must be set")
	}
	if c.Capability.ExtractionTemperature < 0 || c.Capability.ExtractionTemperature > 2 {
		return errors.New("capability.extraction_temperature must be between 0 and 2")
	}
	if c.Capability.TimeoutSeconds <= 0 {
		return errors.New("capability.timeout_seconds must be positive")
	}
	if c.Capability.RetryMaxAttempts < 1 {
		return errors.New("capability.retry_max_attempts must be at least 1")
	}
	if _, err := url.ParseRequestURI(c.Capability.BaseURL); err != nil {
		return fmt.Errorf("capability.base_url must be a valid URL: %w", err)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.WebhookURL != "" {
		if _, err := url.ParseRequestURI(c.Notifications.WebhookURL); err != nil {
			return fmt.Errorf("notifications.webhook_url must be a valid URL: %w", err)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format must be console, json, or auto (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
