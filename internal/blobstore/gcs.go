package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"recipeforge/internal/services"
)

// GCSStore keeps one object per blob under "{prefix}/{partition}/{key}".
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS builds a store using application default credentials.
func NewGCS(ctx context.Context, bucket, prefix string) (*GCSStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "blobstore", "open gcs", "bucket is required", nil)
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "blobstore", "create gcs client", "", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (s *GCSStore) objectName(partition, key string) string {
	if s.prefix == "" {
		return partition + "/" + key
	}
	return s.prefix + "/" + partition + "/" + key
}

func (s *GCSStore) Save(ctx context.Context, partition, key string, data []byte) error {
	if err := validateKey(partition, key); err != nil {
		return err
	}
	writer := s.client.Bucket(s.bucket).Object(s.objectName(partition, key)).NewWriter(ctx)
	writer.ContentType = ContentType(key)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return services.Wrap(services.ErrStorage, "blobstore", "save", partition+"/"+key, err)
	}
	if err := writer.Close(); err != nil {
		return services.Wrap(services.ErrStorage, "blobstore", "save", partition+"/"+key, err)
	}
	return nil
}

func (s *GCSStore) Load(ctx context.Context, partition, key string) ([]byte, bool, error) {
	if err := validateKey(partition, key); err != nil {
		return nil, false, err
	}
	data, ok, err := s.read(ctx, s.objectName(partition, key))
	if err != nil {
		return nil, false, services.Wrap(services.ErrStorage, "blobstore", "load", partition+"/"+key, err)
	}
	return data, ok, nil
}

func (s *GCSStore) read(ctx context.Context, name string) ([]byte, bool, error) {
	reader, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *GCSStore) List(ctx context.Context, partition string) ([]string, error) {
	if err := validatePartition(partition); err != nil {
		return nil, err
	}
	base := s.objectName(partition, "")
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: base, Delimiter: "/"})
	var keys []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrStorage, "blobstore", "list", partition, err)
		}
		name := attrs.Name
		if attrs.Prefix != "" {
			name = attrs.Prefix
		}
		keys = append(keys, strings.TrimPrefix(name, base))
	}
	return topLevelNames(keys), nil
}

func (s *GCSStore) Find(ctx context.Context, partition, prefix string) (map[string][]byte, error) {
	if err := validatePrefix(partition, prefix); err != nil {
		return nil, err
	}
	base := s.objectName(partition, "")
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: base + prefix})
	out := make(map[string][]byte)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrStorage, "blobstore", "find", partition+"/"+prefix, err)
		}
		data, ok, err := s.read(ctx, attrs.Name)
		if err != nil {
			return nil, services.Wrap(services.ErrStorage, "blobstore", "find", attrs.Name, err)
		}
		if ok {
			out[strings.TrimPrefix(attrs.Name, base)] = data
		}
	}
	return out, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }
