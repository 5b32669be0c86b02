// Package speechcache keeps synthesized reference speech in sqlite so the
// same sentence and voice are only synthesized once. Only generated audio is
// stored, never user recordings.
package speechcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/singleflight"

	"codeberg.org/snonux/parrot/internal"
	"codeberg.org/snonux/parrot/internal/audio"
	"codeberg.org/snonux/parrot/internal/observe"
)

const schema = `
CREATE TABLE IF NOT EXISTS speech (
	key        TEXT PRIMARY KEY,
	provider   TEXT NOT NULL,
	voice      TEXT NOT NULL,
	text       TEXT NOT NULL,
	pcm        BLOB NOT NULL,
	created_at INTEGER NOT NULL
)`

// Cache wraps a speech provider with a persistent lookup table
type Cache struct {
	db       *sql.DB
	provider audio.Provider
	metrics  *observe.Metrics
	group    singleflight.Group
}

// Open opens (creating if needed) the cache database at path
func Open(path string, provider audio.Provider, metrics *observe.Metrics) (*Cache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open speech cache: %w", err)
	}
	// One connection keeps :memory: databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create speech table: %w", err)
	}

	return &Cache{db: db, provider: provider, metrics: metrics}, nil
}

// Close closes the database
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) key(text, voice string) string {
	return internal.ContentKey(c.provider.Name(), voice, text)
}

// Synthesize returns cached PCM for text and voice or synthesizes and stores
// it. Concurrent misses for the same key share one provider call.
func (c *Cache) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	key := c.key(text, voice)
	log := observe.Logger(ctx)

	pcm, err := c.lookup(ctx, key)
	switch {
	case err == nil:
		c.metrics.RecordSpeechCache(ctx, "hit")
		return pcm, nil
	case errors.Is(err, sql.ErrNoRows):
		c.metrics.RecordSpeechCache(ctx, "miss")
	default:
		c.metrics.RecordSpeechCache(ctx, "error")
		log.Warn("speech cache lookup failed", "err", err)
	}

	// the shared call must outlive the caller that started it
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		pcm, err := c.provider.Synthesize(shared, text, voice)
		if err != nil {
			return nil, err
		}
		if err := c.store(shared, key, text, voice, pcm); err != nil {
			log.Warn("speech cache store failed", "err", err)
		}
		return pcm, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *Cache) lookup(ctx context.Context, key string) ([]byte, error) {
	var pcm []byte
	err := c.db.QueryRowContext(ctx, `SELECT pcm FROM speech WHERE key = ?`, key).Scan(&pcm)
	return pcm, err
}

func (c *Cache) store(ctx context.Context, key, text, voice string, pcm []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO speech (key, provider, voice, text, pcm, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		key, c.provider.Name(), voice, text, pcm, time.Now().Unix(),
	)
	return err
}

// Len returns the number of cached entries
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM speech`).Scan(&n)
	return n, err
}

// Name returns the provider name
func (c *Cache) Name() string {
	return c.provider.Name() + " (cached)"
}

// Chain caches primary at path and, when fallback is not nil, answers from
// fallback whenever primary fails. Fallback audio is never cached. An empty
// path disables the cache; the returned Closer is then a no-op.
func Chain(path string, primary, fallback audio.Provider, metrics *observe.Metrics) (audio.Provider, io.Closer, error) {
	var speech audio.Provider = primary
	var closer io.Closer = nopCloser{}

	if path != "" {
		cache, err := Open(path, primary, metrics)
		if err != nil {
			return nil, nil, err
		}
		speech, closer = cache, cache
	}
	if fallback != nil {
		speech = audio.NewProviderWithFallback(speech, fallback)
	}
	return speech, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// IsAvailable reports the wrapped provider's availability
func (c *Cache) IsAvailable() error {
	return c.provider.IsAvailable()
}
