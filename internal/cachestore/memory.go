package cachestore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStorage keeps buckets in process memory. Contents do not survive a restart.
type MemoryStorage struct {
	mu      sync.RWMutex
	buckets map[string]*memoryBucket
}

// NewMemoryStorage constructs an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{buckets: make(map[string]*memoryBucket)}
}

func (s *MemoryStorage) Open(ctx context.Context, name string) (Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		b = &memoryBucket{name: name, entries: make(map[string]Response)}
		s.buckets[name] = b
	}
	return b, nil
}

func (s *MemoryStorage) Names(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buckets[name]; !ok {
		return ErrBucketNotFound
	}
	delete(s.buckets, name)
	return nil
}

func (s *MemoryStorage) Close() error { return nil }

type memoryBucket struct {
	name    string
	mu      sync.RWMutex
	entries map[string]Response
}

func (b *memoryBucket) Name() string { return b.name }

func (b *memoryBucket) Match(ctx context.Context, key string) (Response, bool, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, false, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	resp, ok := b.entries[key]
	if !ok {
		return Response{}, false, nil
	}
	return stamp(resp), true, nil
}

func (b *memoryBucket) Put(ctx context.Context, key string, resp Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[key] = stamp(resp)
	return nil
}

func (b *memoryBucket) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.entries, key)
	return nil
}

func (b *memoryBucket) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
