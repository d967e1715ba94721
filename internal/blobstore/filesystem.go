package blobstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"recipeforge/internal/fileutil"
	"recipeforge/internal/services"
)

// FilesystemStore keeps each blob as a file under {root}/{partition}/{key}.
type FilesystemStore struct {
	root string
}

// NewFilesystem returns a store rooted at root. The directory is created lazily.
func NewFilesystem(root string) *FilesystemStore {
	return &FilesystemStore{root: root}
}

func (s *FilesystemStore) path(partition, key string) string {
	return filepath.Join(s.root, partition, filepath.FromSlash(key))
}

func (s *FilesystemStore) Save(ctx context.Context, partition, key string, data []byte) error {
	if err := validateKey(partition, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(s.path(partition, key), data, 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "blobstore", "save", partition+"/"+key, err)
	}
	return nil
}

func (s *FilesystemStore) Load(ctx context.Context, partition, key string) ([]byte, bool, error) {
	if err := validateKey(partition, key); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.path(partition, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, services.Wrap(services.ErrStorage, "blobstore", "load", partition+"/"+key, err)
	}
	return data, true, nil
}

func (s *FilesystemStore) List(ctx context.Context, partition string) ([]string, error) {
	if err := validatePartition(partition); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.root, partition))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, services.Wrap(services.ErrStorage, "blobstore", "list", partition, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if fileutil.IsTempName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Find is not backed by the filesystem layout.
func (s *FilesystemStore) Find(context.Context, string, string) (map[string][]byte, error) {
	return nil, services.Wrap(services.ErrUnimplemented, "blobstore", "find", "filesystem backend has no prefix index", nil)
}

func (s *FilesystemStore) Close() error { return nil }
