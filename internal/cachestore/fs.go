package cachestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FSStorage keeps one directory per bucket under basePath and one JSON file per entry.
type FSStorage struct {
	basePath string
	mu       sync.Mutex
}

type fsEntry struct {
	Key      string   `json:"key"`
	Response Response `json:"response"`
}

// NewFSStorage constructs a storage rooted at basePath, creating it if needed.
func NewFSStorage(basePath string) (*FSStorage, error) {
	if basePath == "" {
		return nil, errors.New("cachestore: base path required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, err
	}
	return &FSStorage{basePath: basePath}, nil
}

// BasePath exposes the storage root (primarily for testing).
func (s *FSStorage) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

func (s *FSStorage) bucketDir(name string) string {
	return filepath.Join(s.basePath, url.PathEscape(name))
}

func (s *FSStorage) Open(ctx context.Context, name string) (Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validName(name); err != nil {
		return nil, err
	}
	dir := s.bucketDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fsBucket{name: name, dir: dir, mu: &s.mu}, nil
}

func (s *FSStorage) Names(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name, err := url.PathUnescape(e.Name())
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *FSStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.bucketDir(name)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return ErrBucketNotFound
		}
		return err
	}
	return os.RemoveAll(dir)
}

func (s *FSStorage) Close() error { return nil }

type fsBucket struct {
	name string
	dir  string
	mu   *sync.Mutex
}

func (b *fsBucket) Name() string { return b.name }

func (b *fsBucket) entryPath(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(b.dir, hex.EncodeToString(sum[:])+".json")
}

func (b *fsBucket) Match(ctx context.Context, key string) (Response, bool, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, false, err
	}
	entry, err := readEntry(b.entryPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return Response{}, false, nil
		}
		return Response{}, false, err
	}
	if entry.Key != key {
		return Response{}, false, nil
	}
	return entry.Response, true, nil
}

func (b *fsBucket) Put(ctx context.Context, key string, resp Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(fsEntry{Key: key, Response: stamp(resp)})
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return err
	}
	target := b.entryPath(key)
	if existing, err := os.ReadFile(target); err == nil && bytes.Equal(existing, data) {
		return nil
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

func (b *fsBucket) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(b.entryPath(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (b *fsBucket) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	keys := make([]string, 0, len(files))
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		entry, err := readEntry(filepath.Join(b.dir, f.Name()))
		if err != nil {
			continue
		}
		keys = append(keys, entry.Key)
	}
	sort.Strings(keys)
	return keys, nil
}

func readEntry(path string) (fsEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fsEntry{}, err
	}
	var entry fsEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return fsEntry{}, fmt.Errorf("decode cache entry %s: %w", filepath.Base(path), err)
	}
	return entry, nil
}
