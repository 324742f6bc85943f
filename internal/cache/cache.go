// Package cache provides SQLite-backed caching of SPARQL query results.
// The cache is stored in .px/cache.db; repeated report runs against a slow
// public endpoint reuse recent results instead of re-issuing every query.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/google/uuid"
	"github.com/hargabyte/px/internal/sparql"
)

// Cache manages the .px/cache.db SQLite database for storing query results
// and run records.
type Cache struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the cache database in the specified .px directory.
// It initializes the schema if the database is new.
func Open(pxDir string) (*Cache, error) {
	dbPath := filepath.Join(pxDir, "cache.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	cache := &Cache{db: db, dbPath: dbPath}

	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return cache, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.dbPath
}

// DB returns the underlying database connection for advanced operations.
func (c *Cache) DB() *sql.DB {
	return c.db
}

// Clear removes all cached query results. Run records are kept.
func (c *Cache) Clear() error {
	_, err := c.db.Exec("DELETE FROM query_cache")
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// queryHash keys cache entries by the SHA-256 of the query text.
func queryHash(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached rows for query if an entry exists and is younger
// than ttl. The second return reports whether a fresh entry was found.
func (c *Cache) Lookup(query string, ttl time.Duration) ([]sparql.Row, bool, error) {
	var (
		rowsJSON  string
		fetchedAt string
	)
	err := c.db.QueryRow(
		"SELECT rows_json, fetched_at FROM query_cache WHERE query_hash = ?",
		queryHash(query),
	).Scan(&rowsJSON, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup query: %w", err)
	}

	fetched, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil || time.Since(fetched) > ttl {
		return nil, false, nil
	}

	var rows []sparql.Row
	if err := json.Unmarshal([]byte(rowsJSON), &rows); err != nil {
		return nil, false, fmt.Errorf("decode cached rows: %w", err)
	}
	return rows, true, nil
}

// Store saves the rows for query, replacing any previous entry.
func (c *Cache) Store(query string, rows []sparql.Row) error {
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}

	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO query_cache (query_hash, query, rows_json, fetched_at) VALUES (?, ?, ?, ?)",
		queryHash(query), query, string(rowsJSON), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store query: %w", err)
	}
	return nil
}

// StartRun records the start of a report run and returns its id.
func (c *Cache) StartRun() (string, error) {
	runID := uuid.NewString()
	_, err := c.db.Exec(
		"INSERT INTO runs (run_id, started_at) VALUES (?, ?)",
		runID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	return runID, nil
}

// FinishRun records the end of a report run with its query counters.
func (c *Cache) FinishRun(runID string, queries, hits int) error {
	_, err := c.db.Exec(
		"UPDATE runs SET finished_at = ?, query_count = ?, cache_hits = ? WHERE run_id = ?",
		time.Now().UTC().Format(time.RFC3339), queries, hits, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Stats returns cache statistics.
type Stats struct {
	QueryCount int64
	RunCount   int64
}

// GetStats returns statistics about the cache contents.
func (c *Cache) GetStats() (*Stats, error) {
	var stats Stats

	err := c.db.QueryRow("SELECT COUNT(*) FROM query_cache").Scan(&stats.QueryCount)
	if err != nil {
		return nil, fmt.Errorf("count queries: %w", err)
	}

	err = c.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&stats.RunCount)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	return &stats, nil
}
