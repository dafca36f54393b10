package cachestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_buckets (
	name TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS cache_entries (
	bucket TEXT NOT NULL REFERENCES cache_buckets(name) ON DELETE CASCADE,
	url TEXT NOT NULL,
	status INTEGER NOT NULL,
	header TEXT NOT NULL,
	body BLOB NOT NULL,
	stored_at INTEGER NOT NULL,
	PRIMARY KEY (bucket, url)
);`

// SQLiteStorage persists buckets in a SQLite database.
type SQLiteStorage struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStorage{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStorage) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStorage) Open(ctx context.Context, name string) (Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validName(name); err != nil {
		return nil, err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO cache_buckets (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, toMillis(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", name, err)
	}
	return &sqliteBucket{name: name, sqlDB: s.sqlDB}, nil
}

func (s *SQLiteStorage) Names(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT name FROM cache_buckets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE bucket = ?`, name); err != nil {
		return fmt.Errorf("delete bucket entries %s: %w", name, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM cache_buckets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete bucket %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrBucketNotFound
	}
	return tx.Commit()
}

type sqliteBucket struct {
	name  string
	sqlDB *sql.DB
}

func (b *sqliteBucket) Name() string { return b.name }

func (b *sqliteBucket) Match(ctx context.Context, key string) (Response, bool, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, false, err
	}
	var (
		resp     Response
		header   string
		storedAt int64
	)
	row := b.sqlDB.QueryRowContext(ctx,
		`SELECT status, header, body, stored_at FROM cache_entries WHERE bucket = ? AND url = ?`,
		b.name, key,
	)
	if err := row.Scan(&resp.Status, &header, &resp.Body, &storedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Response{}, false, nil
		}
		return Response{}, false, fmt.Errorf("match %s: %w", key, err)
	}
	if header != "" {
		if err := json.Unmarshal([]byte(header), &resp.Header); err != nil {
			return Response{}, false, fmt.Errorf("decode header for %s: %w", key, err)
		}
	}
	resp.StoredAt = fromMillis(storedAt)
	return resp, true, nil
}

func (b *sqliteBucket) Put(ctx context.Context, key string, resp Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp = stamp(resp)
	header, err := json.Marshal(resp.Header)
	if err != nil {
		return err
	}
	if resp.Body == nil {
		resp.Body = []byte{}
	}
	_, err = b.sqlDB.ExecContext(ctx, `
INSERT INTO cache_entries (bucket, url, status, header, body, stored_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(bucket, url) DO UPDATE SET
	status = excluded.status,
	header = excluded.header,
	body = excluded.body,
	stored_at = excluded.stored_at`,
		b.name, key, resp.Status, string(header), resp.Body, toMillis(resp.StoredAt),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (b *sqliteBucket) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.sqlDB.ExecContext(ctx, `DELETE FROM cache_entries WHERE bucket = ? AND url = ?`, b.name, key)
	return err
}

func (b *sqliteBucket) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := b.sqlDB.QueryContext(ctx, `SELECT url FROM cache_entries WHERE bucket = ? ORDER BY url`, b.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
