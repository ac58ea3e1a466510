// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache keeps fetched paper content in a local SQLite database so
// repeated runs over the same URL list skip the page download.
//
// Only successful fetches are stored. A cache failure is logged and the
// wrapped fetcher is used instead; it never fails an item.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-triage/pkg/types"
)

const pagesTable = "pages"

// Store manages the page cache database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at path and creates the schema
// if it does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS ` + pagesTable + ` (
		url TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		abstract TEXT NOT NULL,
		fetched_at TEXT NOT NULL
	)`)
	return err
}

// Get returns the cached content for url. ok is false on a miss.
func (s *Store) Get(ctx context.Context, url string) (content types.PaperContent, ok bool, err error) {
	query, args, err := sq.Select("title", "abstract").
		From(pagesTable).
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return types.PaperContent{}, false, fmt.Errorf("building query: %w", err)
	}

	err = s.db.QueryRowContext(ctx, query, args...).Scan(&content.Title, &content.Abstract)
	if errors.Is(err, sql.ErrNoRows) {
		return types.PaperContent{}, false, nil
	}
	if err != nil {
		return types.PaperContent{}, false, fmt.Errorf("reading cached page %s: %w", url, err)
	}
	return content, true, nil
}

// Put stores content for url, replacing any earlier entry.
func (s *Store) Put(ctx context.Context, url string, content types.PaperContent) error {
	query, args, err := sq.Insert(pagesTable).
		Columns("url", "title", "abstract", "fetched_at").
		Values(url, content.Title, content.Abstract, time.Now().UTC().Format(time.RFC3339)).
		Suffix("ON CONFLICT(url) DO UPDATE SET title = excluded.title, abstract = excluded.abstract, fetched_at = excluded.fetched_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("caching page %s: %w", url, err)
	}
	return nil
}

// Len returns the number of cached pages.
func (s *Store) Len(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From(pagesTable).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cached pages: %w", err)
	}
	return n, nil
}

// Fetcher is the fetch operation being cached.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (types.PaperContent, error)
}

// CachingFetcher serves content from a Store and falls back to next on a miss.
type CachingFetcher struct {
	store  *Store
	next   Fetcher
	logger *zap.Logger
}

// NewCachingFetcher wraps next with store.
func NewCachingFetcher(store *Store, next Fetcher, logger *zap.Logger) *CachingFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingFetcher{store: store, next: next, logger: logger}
}

// Fetch returns cached content when present; otherwise fetches and stores
// the result if the fetch succeeded.
func (c *CachingFetcher) Fetch(ctx context.Context, url string) (types.PaperContent, error) {
	content, ok, err := c.store.Get(ctx, url)
	switch {
	case err != nil:
		c.logger.Warn("cache read failed", zap.String("url", url), zap.Error(err))
	case ok:
		c.logger.Debug("cache hit", zap.String("url", url))
		return content, nil
	}

	content, err = c.next.Fetch(ctx, url)
	if err != nil {
		return types.PaperContent{}, err
	}

	if err := c.store.Put(ctx, url, content); err != nil {
		c.logger.Warn("cache write failed", zap.String("url", url), zap.Error(err))
	}
	return content, nil
}
