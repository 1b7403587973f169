// Package cache persists per-game achievement summaries between runs.
//
// The cache is loaded once at the start of a run, handed explicitly to the
// aggregator, and saved once at the end in a single transaction.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Entry is the cached achievement summary for one game
type Entry struct {
	LastPlayed    int64
	Achieved      int
	Total         int
	RarestName    string
	RarestPercent *float64
}

// AchievementCache maps app IDs to cached summaries. It is not safe for
// concurrent use; the aggregator is its only writer.
type AchievementCache struct {
	path    string
	entries map[int]Entry
	// reset is set when the file at path could not be read; Save replaces it.
	reset bool
}

// New returns an empty cache with no backing file. Save is a no-op.
func New() *AchievementCache {
	return &AchievementCache{entries: map[int]Entry{}}
}

// Load reads the cache stored at path. Any failure (missing file, not a
// database, missing table, bad row) yields an empty cache that will still be
// saved to path; an unreadable file is replaced on Save. Load never creates the file.
func Load(path string) *AchievementCache {
	c := &AchievementCache{path: path, entries: map[int]Entry{}}
	if path == "" {
		return c
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Cannot stat achievement cache, starting empty", "path", path, "error", err)
		}
		return c
	}

	entries, err := readEntries(path)
	if err != nil {
		slog.Warn("Failed to load achievement cache, starting empty", "path", path, "error", err)
		c.reset = true
		return c
	}

	c.entries = entries
	slog.Debug("Loaded achievement cache", "path", path, "entries", len(entries))
	return c
}

func readEntries(path string) (map[int]Entry, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.Query(selectEntriesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := map[int]Entry{}
	for rows.Next() {
		var (
			appID   int
			entry   Entry
			percent sql.NullFloat64
		)
		if err := rows.Scan(&appID, &entry.LastPlayed, &entry.Achieved, &entry.Total, &entry.RarestName, &percent); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		if percent.Valid {
			p := percent.Float64
			entry.RarestPercent = &p
		}
		entries[appID] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cache entries: %w", err)
	}
	return entries, nil
}

// Get returns the entry for appID only if it was stored for the same lastPlayed value.
func (c *AchievementCache) Get(appID int, lastPlayed int64) (Entry, bool) {
	entry, ok := c.entries[appID]
	if !ok || entry.LastPlayed != lastPlayed {
		return Entry{}, false
	}
	return entry, true
}

// Set stores or replaces the entry for appID.
func (c *AchievementCache) Set(appID int, lastPlayed int64, achieved, total int, rarestName string, rarestPercent *float64) {
	c.entries[appID] = Entry{
		LastPlayed:    lastPlayed,
		Achieved:      achieved,
		Total:         total,
		RarestName:    rarestName,
		RarestPercent: rarestPercent,
	}
}

// Len returns the number of cached games.
func (c *AchievementCache) Len() int {
	return len(c.entries)
}

// Path returns the backing file, empty when persistence is disabled.
func (c *AchievementCache) Path() string {
	return c.path
}

// Save writes every entry to the backing file in one transaction.
func (c *AchievementCache) Save() error {
	if c.path == "" {
		return nil
	}

	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	if c.reset {
		if err := removeDBFiles(c.path); err != nil {
			return err
		}
		slog.Info("Replacing unreadable achievement cache", "path", c.path)
	}

	db, err := openDB(c.path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(AchievementCacheSchema); err != nil {
		return fmt.Errorf("failed to create cache table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(upsertEntrySQL)
	if err != nil {
		return errors.Join(fmt.Errorf("failed to prepare statement: %w", err), tx.Rollback())
	}
	defer func() { _ = stmt.Close() }()

	for appID, entry := range c.entries {
		var percent sql.NullFloat64
		if entry.RarestPercent != nil {
			percent = sql.NullFloat64{Float64: *entry.RarestPercent, Valid: true}
		}
		if _, err := stmt.Exec(appID, entry.LastPlayed, entry.Achieved, entry.Total, entry.RarestName, percent); err != nil {
			return errors.Join(fmt.Errorf("failed to write cache entry for app %d: %w", appID, err), tx.Rollback())
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache: %w", err)
	}

	c.reset = false
	slog.Debug("Saved achievement cache", "path", c.path, "entries", len(c.entries))
	return nil
}

// removeDBFiles deletes the database file at path with its journal files.
func removeDBFiles(path string) error {
	for _, name := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove unreadable cache file: %w", err)
		}
	}
	return nil
}

// Clear deletes every cached entry stored at path and returns how many were removed.
// A missing file is not an error.
func Clear(path string) (int64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, nil
	}

	db, err := openDB(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(AchievementCacheSchema); err != nil {
		return 0, fmt.Errorf("failed to create cache table: %w", err)
	}

	result, err := db.Exec("DELETE FROM " + tableName)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Debug("Cache table cleared", "table", tableName, "rows_deleted", rowsAffected)
	return rowsAffected, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}
	return db, nil
}
