package config

const (
	defaultConfigPath     = "~/.config/recipeforge/config.toml"
	defaultStorageRoot    = "~/.local/share/recipeforge"
	defaultPartition      = "recipes"
	defaultSQLiteFilename = "blobs.db"
	defaultRedisAddr      = "127.0.0.1:6379"

	defaultProvider              = ProviderOpenRouter
	defaultCapabilityBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultExtractionModel       = "google/gemini-3-pro-preview"
	defaultImageModel            = "google/gemini-3-pro-image-preview"
	defaultAnthropicModel        = "claude-sonnet-4-5"
	defaultExtractionTemperature = 0.1
	defaultCapabilityTimeout     = 360
	defaultRetryMaxAttempts      = 3
	defaultMaxTokens             = 8192
	defaultCapabilityReferer     = "https://github.com/recipeforge/recipeforge"
	defaultCapabilityTitle       = "recipeforge"

	defaultNotifyTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Storage backends.
const (
	BackendFilesystem = "filesystem"
	BackendMemory     = "memory"
	BackendSQLite     = "sqlite"
	BackendRedis      = "redis"
	BackendS3         = "s3"
	BackendGCS        = "gcs"
)

// Capability providers.
const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
)

// Default returns a Config populated with repository defaults. Paths are left
// empty so normalization can derive them from RECIPES_ROOT or the default
// storage root.
func Default() Config {
	return Config{
		Storage: Storage{
			Backend:   BackendFilesystem,
			Partition: defaultPartition,
			RedisAddr: defaultRedisAddr,
		},
		Capability: Capability{
			Provider:              defaultProvider,
			TextProvider:          defaultProvider,
			BaseURL:               defaultCapabilityBaseURL,
			ExtractionModel:       defaultExtractionModel,
			ImageModel:            defaultImageModel,
			ExtractionTemperature: defaultExtractionTemperature,
			TimeoutSeconds:        defaultCapabilityTimeout,
			RetryMaxAttempts:      defaultRetryMaxAttempts,
			Referer:               defaultCapabilityReferer,
			Title:                 defaultCapabilityTitle,
			AnthropicModel:        defaultAnthropicModel,
			MaxTokens:             defaultMaxTokens,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
