package blobstore

import (
	"context"
	"path"
	"sort"
	"strings"

	"recipeforge/internal/services"
)

// Store is the blob storage contract shared by every backend.
type Store interface {
	// Save writes data under (partition, key), overwriting any previous value
	// and creating intermediate structure as needed.
	Save(ctx context.Context, partition, key string, data []byte) error
	// Load returns the stored bytes. ok is false when nothing is stored.
	Load(ctx context.Context, partition, key string) (data []byte, ok bool, err error)
	// List returns the sorted, unique top-level entry names in partition.
	List(ctx context.Context, partition string) ([]string, error)
	// Find returns every entry in partition whose key starts with prefix.
	Find(ctx context.Context, partition, prefix string) (map[string][]byte, error)
	Close() error
}

// SaveText stores a UTF-8 string value.
func SaveText(ctx context.Context, store Store, partition, key, value string) error {
	return store.Save(ctx, partition, key, []byte(value))
}

func validatePartition(partition string) error {
	if partition == "" || strings.ContainsAny(partition, `/\`) || partition == "." || partition == ".." {
		return services.Wrap(services.ErrValidation, "blobstore", "validate partition", "invalid partition "+partition, nil)
	}
	return nil
}

func validateKey(partition, key string) error {
	if err := validatePartition(partition); err != nil {
		return err
	}
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return services.Wrap(services.ErrValidation, "blobstore", "validate key", "invalid key "+key, nil)
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return services.Wrap(services.ErrValidation, "blobstore", "validate key", "invalid key "+key, nil)
		}
	}
	return nil
}

func validatePrefix(partition, prefix string) error {
	if err := validatePartition(partition); err != nil {
		return err
	}
	if strings.HasPrefix(prefix, "/") || strings.Contains(prefix, "..") {
		return services.Wrap(services.ErrValidation, "blobstore", "validate prefix", "invalid prefix "+prefix, nil)
	}
	return nil
}

func topLevel(key string) string {
	if idx := strings.IndexByte(key, '/'); idx >= 0 {
		return key[:idx]
	}
	return key
}

// topLevelNames reduces keys to their sorted, unique first segments.
func topLevelNames(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		name := topLevel(key)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cloneBytes(data []byte) []byte {
	if data == nil {
		return []byte{}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// ContentType maps a key's extension to a MIME type.
func ContentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
