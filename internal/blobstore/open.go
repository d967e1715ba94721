package blobstore

import (
	"context"
	"fmt"

	"recipeforge/internal/config"
	"recipeforge/internal/services"
)

// Open builds the store selected by cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "blobstore", "open", "config is nil", nil)
	}
	storage := cfg.Storage
	switch storage.Backend {
	case "", config.BackendFilesystem:
		return NewFilesystem(cfg.Paths.StorageRoot), nil
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendSQLite:
		return OpenSQLite(ctx, storage.SQLitePath)
	case config.BackendRedis:
		namespace := storage.Prefix
		if namespace != "" {
			namespace += ":"
		}
		return NewRedis(ctx, RedisOptions{
			Addr:      storage.RedisAddr,
			Password:  storage.RedisPassword,
			DB:        storage.RedisDB,
			Namespace: namespace,
		})
	case config.BackendS3:
		return NewS3(ctx, S3Options{
			Bucket:   storage.Bucket,
			Prefix:   storage.Prefix,
			Region:   storage.Region,
			Endpoint: storage.Endpoint,
		})
	case config.BackendGCS:
		return NewGCS(ctx, storage.Bucket, storage.Prefix)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "blobstore", "open", fmt.Sprintf("unknown backend %q", storage.Backend), nil)
	}
}
