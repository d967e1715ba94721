package blobstore

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps blobs in process memory. Values are copied on the way in
// and out so callers cannot mutate stored data.
type MemoryStore struct {
	mu         sync.RWMutex
	partitions map[string]map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{partitions: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Save(ctx context.Context, partition, key string, data []byte) error {
	if err := validateKey(partition, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.partitions[partition]
	if !ok {
		entries = make(map[string][]byte)
		s.partitions[partition] = entries
	}
	entries[key] = cloneBytes(data)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, partition, key string) ([]byte, bool, error) {
	if err := validateKey(partition, key); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.partitions[partition][key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(data), true, nil
}

func (s *MemoryStore) List(ctx context.Context, partition string) ([]string, error) {
	if err := validatePartition(partition); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.partitions[partition]))
	for key := range s.partitions[partition] {
		keys = append(keys, key)
	}
	return topLevelNames(keys), nil
}

func (s *MemoryStore) Find(ctx context.Context, partition, prefix string) (map[string][]byte, error) {
	if err := validatePrefix(partition, prefix); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte)
	for key, data := range s.partitions[partition] {
		if strings.HasPrefix(key, prefix) {
			out[key] = cloneBytes(data)
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
