package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStorage keeps each bucket in a hash and tracks bucket names in a set.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage connects to addr and verifies the connection.
func NewRedisStorage(ctx context.Context, addr string, db int, prefix string) (*RedisStorage, error) {
	if addr == "" {
		return nil, errors.New("cachestore: redis address required")
	}
	if prefix == "" {
		prefix = "cachestore"
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStorage{client: client, prefix: prefix}, nil
}

func (s *RedisStorage) namesKey() string {
	return s.prefix + ":buckets"
}

func (s *RedisStorage) bucketKey(name string) string {
	return s.prefix + ":bucket:" + name
}

func (s *RedisStorage) Open(ctx context.Context, name string) (Bucket, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if err := s.client.SAdd(ctx, s.namesKey(), name).Err(); err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", name, err)
	}
	return &redisBucket{name: name, key: s.bucketKey(name), client: s.client}, nil
}

func (s *RedisStorage) Names(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.namesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStorage) Delete(ctx context.Context, name string) error {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.SRem(ctx, s.namesKey(), name)
		pipe.Del(ctx, s.bucketKey(name))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete bucket %s: %w", name, err)
	}
	if removed.Val() == 0 {
		return ErrBucketNotFound
	}
	return nil
}

func (s *RedisStorage) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

type redisBucket struct {
	name   string
	key    string
	client *redis.Client
}

func (b *redisBucket) Name() string { return b.name }

func (b *redisBucket) Match(ctx context.Context, key string) (Response, bool, error) {
	raw, err := b.client.HGet(ctx, b.key, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Response{}, false, nil
		}
		return Response{}, false, fmt.Errorf("match %s: %w", key, err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return resp, true, nil
}

func (b *redisBucket) Put(ctx context.Context, key string, resp Response) error {
	data, err := json.Marshal(stamp(resp))
	if err != nil {
		return err
	}
	return b.client.HSet(ctx, b.key, key, data).Err()
}

func (b *redisBucket) Delete(ctx context.Context, key string) error {
	return b.client.HDel(ctx, b.key, key).Err()
}

func (b *redisBucket) Keys(ctx context.Context) ([]string, error) {
	keys, err := b.client.HKeys(ctx, b.key).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
