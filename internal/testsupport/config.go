package testsupport

import (
	"path/filepath"
	"testing"

	"recipeforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Storage defaults to the in-memory backend and the capability key to "test".
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StorageRoot = filepath.Join(base, "storage")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LockDir = filepath.Join(base, "locks")
	cfgVal.Storage.Backend = config.BackendMemory
	cfgVal.Storage.SQLitePath = filepath.Join(base, "storage", "blobs.db")
	cfgVal.Capability.APIKey = "test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackend selects the storage backend.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Backend = backend
	}
}

// WithWebhook sets the creation webhook and public base URL.
func WithWebhook(webhookURL, publicBaseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.WebhookURL = webhookURL
		b.cfg.Notifications.PublicBaseURL = publicBaseURL
	}
}

// WithResume enables pipeline resume.
func WithResume() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Resume = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StorageRoot)
}
