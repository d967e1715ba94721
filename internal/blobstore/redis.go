package blobstore

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"recipeforge/internal/services"
)

const redisScanCount = 256

// RedisStore keeps one string value per blob under "{namespace}{partition}/{key}".
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// RedisOptions configures NewRedis.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Namespace is prepended to every key, e.g. "recipeforge:".
	Namespace string
}

// NewRedis connects to Redis and verifies the connection with PING.
func NewRedis(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, services.Wrap(services.ErrStorage, "blobstore", "connect redis", opts.Addr, err)
	}
	return &RedisStore{client: client, namespace: opts.Namespace}, nil
}

func (s *RedisStore) redisKey(partition, key string) string {
	return s.namespace + partition + "/" + key
}

func (s *RedisStore) Save(ctx context.Context, partition, key string, data []byte) error {
	if err := validateKey(partition, key); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.redisKey(partition, key), data, 0).Err(); err != nil {
		return services.Wrap(services.ErrStorage, "blobstore", "save", partition+"/"+key, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, partition, key string) ([]byte, bool, error) {
	if err := validateKey(partition, key); err != nil {
		return nil, false, err
	}
	data, err := s.client.Get(ctx, s.redisKey(partition, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, services.Wrap(services.ErrStorage, "blobstore", "load", partition+"/"+key, err)
	}
	return data, true, nil
}

func (s *RedisStore) scan(ctx context.Context, partition, prefix string) ([]string, error) {
	base := s.namespace + partition + "/"
	match := escapeGlob(base+prefix) + "*"
	var keys []string
	iter := s.client.Scan(ctx, 0, match, redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), base))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *RedisStore) List(ctx context.Context, partition string) ([]string, error) {
	if err := validatePartition(partition); err != nil {
		return nil, err
	}
	keys, err := s.scan(ctx, partition, "")
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "blobstore", "list", partition, err)
	}
	return topLevelNames(keys), nil
}

func (s *RedisStore) Find(ctx context.Context, partition, prefix string) (map[string][]byte, error) {
	if err := validatePrefix(partition, prefix); err != nil {
		return nil, err
	}
	keys, err := s.scan(ctx, partition, prefix)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "blobstore", "find", partition+"/"+prefix, err)
	}
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = s.redisKey(partition, key)
	}
	values, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "blobstore", "find", partition+"/"+prefix, err)
	}
	for i, value := range values {
		str, ok := value.(string)
		if !ok {
			// deleted between SCAN and MGET
			continue
		}
		out[keys[i]] = []byte(str)
	}
	return out, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

func escapeGlob(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
