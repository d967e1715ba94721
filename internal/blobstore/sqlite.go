package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite"

	"recipeforge/internal/fileutil"
	"recipeforge/internal/services"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const blobSchema = `
CREATE TABLE IF NOT EXISTS blobs (
	partition  TEXT NOT NULL,
	key        TEXT NOT NULL,
	data       BLOB NOT NULL,
	sha256     TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (partition, key)
);`

// SQLiteStore keeps blobs in a single SQLite table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "blobstore", "open sqlite", path, err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrStorage, "blobstore", "apply pragma", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.exec(ctx, blobSchema); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrStorage, "blobstore", "init schema", path, err)
	}
	return store, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func newBusyBackoff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = busyRetryInitialBackoff
	bo.MaxInterval = busyRetryMaxBackoff
	bo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(bo, busyRetryAttempts-1), ctx)
}

func retryOnBusy(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !isSQLiteBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}, newBusyBackoff(ctx))
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func (s *SQLiteStore) Save(ctx context.Context, partition, key string, data []byte) error {
	if err := validateKey(partition, key); err != nil {
		return err
	}
	err := s.exec(ctx, `
INSERT INTO blobs (partition, key, data, sha256, updated_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(partition, key) DO UPDATE SET data = excluded.data, sha256 = excluded.sha256, updated_at = excluded.updated_at`,
		partition, key, cloneBytes(data), fileutil.Checksum(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return services.Wrap(services.ErrStorage, "blobstore", "save", partition+"/"+key, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, partition, key string) ([]byte, bool, error) {
	if err := validateKey(partition, key); err != nil {
		return nil, false, err
	}
	var data []byte
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE partition = ? AND key = ?`, partition, key).Scan(&data)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, services.Wrap(services.ErrStorage, "blobstore", "load", partition+"/"+key, err)
	}
	return cloneBytes(data), true, nil
}

func (s *SQLiteStore) List(ctx context.Context, partition string) ([]string, error) {
	if err := validatePartition(partition); err != nil {
		return nil, err
	}
	var keys []string
	err := retryOnBusy(ctx, func() error {
		keys = keys[:0]
		rows, err := s.db.QueryContext(ctx, `SELECT key FROM blobs WHERE partition = ? ORDER BY key`, partition)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				return err
			}
			keys = append(keys, key)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "blobstore", "list", partition, err)
	}
	return topLevelNames(keys), nil
}

func (s *SQLiteStore) Find(ctx context.Context, partition, prefix string) (map[string][]byte, error) {
	if err := validatePrefix(partition, prefix); err != nil {
		return nil, err
	}
	out := make(map[string][]byte)
	err := retryOnBusy(ctx, func() error {
		clear(out)
		rows, err := s.db.QueryContext(ctx,
			`SELECT key, data FROM blobs WHERE partition = ? AND substr(key, 1, length(?)) = ?`,
			partition, prefix, prefix)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				key  string
				data []byte
			)
			if err := rows.Scan(&key, &data); err != nil {
				return err
			}
			out[key] = cloneBytes(data)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "blobstore", "find", fmt.Sprintf("%s/%s*", partition, prefix), err)
	}
	return out, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
