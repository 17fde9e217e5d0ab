package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"maven/app/config"

	"github.com/pressly/goose/v3"
	"github.com/samber/do"
	"github.com/samber/oops"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ do.Shutdownable = (*Service)(nil)

// Service is the local key-value and blob store behind the workspace.
type Service struct {
	db *sql.DB
	mu sync.RWMutex
}

type Blob struct {
	Data        []byte
	ContentType string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return Open(do.MustInvoke[context.Context](di), cfg.Storage.Path)
}

func Open(ctx context.Context, path string) (*Service, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, oops.In("store").Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, oops.In("store").Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, oops.In("store").Errorf("failed to ping database: %w", err)
	}

	if err = migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Debug("Store opened", "path", path)

	return &Service{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return oops.In("store").Errorf("failed to open migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return oops.In("store").Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return oops.In("store").Errorf("failed to run migrations: %w", err)
	}

	for _, res := range results {
		slog.Debug("Applied migration", "source", res.Source.Path, "duration", res.Duration)
	}

	return nil
}

// GetJSON decodes the value stored under key into v.
// It reports false when the key was never written.
func (s *Service) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, oops.In("store").With("key", key).Wrapf(err, "failed to read value")
	}

	if err = json.Unmarshal([]byte(raw), v); err != nil {
		return false, oops.In("store").With("key", key).Wrapf(err, "failed to decode value")
	}

	return true, nil
}

func (s *Service) PutJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return oops.In("store").With("key", key).Wrapf(err, "failed to encode value")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(data),
	)
	if err != nil {
		return oops.In("store").With("key", key).Wrapf(err, "failed to write value")
	}

	return nil
}

func (s *Service) PutBlob(ctx context.Context, key string, blob Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (key, data, content_type) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, content_type = excluded.content_type`,
		key, blob.Data, blob.ContentType,
	)
	if err != nil {
		return oops.In("store").With("key", key).Wrapf(err, "failed to write blob")
	}

	return nil
}

func (s *Service) GetBlob(ctx context.Context, key string) (*Blob, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var blob Blob
	err := s.db.QueryRowContext(ctx, `SELECT data, content_type FROM blobs WHERE key = ?`, key).
		Scan(&blob.Data, &blob.ContentType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, oops.In("store").With("key", key).Wrapf(err, "failed to read blob")
	}

	return &blob, true, nil
}

func (s *Service) DeleteBlob(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return oops.In("store").With("key", key).Wrapf(err, "failed to delete blob")
	}

	return nil
}

func (s *Service) Shutdown() error {
	return s.db.Close()
}
