// Package cachestore persists named cache buckets of request URL -> stored response pairs.
// Bucket names are compared by exact match; there is no notion of version ordering.
package cachestore

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrBucketNotFound is returned by Delete when no bucket has the given name.
var ErrBucketNotFound = errors.New("cachestore: bucket not found")

// Response is a stored HTTP response. Body is held in full.
type Response struct {
	Status   int         `json:"status"`
	Header   http.Header `json:"header,omitempty"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"storedAt"`
}

// Storage manages named buckets.
type Storage interface {
	// Open returns the named bucket, creating it when missing.
	Open(ctx context.Context, name string) (Bucket, error)
	// Names lists existing bucket names in ascending order.
	Names(ctx context.Context) ([]string, error)
	// Delete removes a bucket and every entry in it.
	Delete(ctx context.Context, name string) error
	Close() error
}

// Bucket holds entries keyed by full request URL.
type Bucket interface {
	Name() string
	// Match returns the stored response for key; ok is false on a miss.
	Match(ctx context.Context, key string) (resp Response, ok bool, err error)
	// Put overwrites the entry for key.
	Put(ctx context.Context, key string, resp Response) error
	Delete(ctx context.Context, key string) error
	// Keys lists stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)
}

func stamp(resp Response) Response {
	if resp.StoredAt.IsZero() {
		resp.StoredAt = time.Now().UTC()
	}
	if resp.Header != nil {
		resp.Header = resp.Header.Clone()
	}
	resp.Body = append([]byte(nil), resp.Body...)
	return resp
}

func validName(name string) error {
	if name == "" {
		return errors.New("cachestore: bucket name required")
	}
	return nil
}
