// Package cache memoizes verification verdicts by the content of the VC
// formula that produced them, so re-checking an unchanged function
// doesn't re-run the Solver. Grounded on funvibe-funxy's
// internal/ext.Cache (content-hash-keyed lookup in a project-local
// store), backed by modernc.org/sqlite instead of a binary file cache
// since verdicts are small structured records rather than build
// artifacts.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "modernc.org/sqlite"
)

// codegenVersion is bumped whenever the verdict encoding below changes,
// invalidating stale rows the same way funvibe-funxy's cache bumps
// codegenVersion on generated-code format changes.
const codegenVersion = "v1"

// Cache is a verdict store backed by a single SQLite database file.
type Cache struct {
	db *sql.DB
}

// Open creates (if absent) and opens the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS verdicts (
	key TEXT PRIMARY KEY,
	verdict TEXT NOT NULL,
	model TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// Key hashes a VC formula's pretty-printed text into a stable lookup
// key. Two syntactically distinct but semantically equal formulas (e.g.
// differing only in And/Or argument order) are not guaranteed to share
// a key — this trades a few avoidable Solver calls for a cache that
// never needs its own equivalence checker.
func Key(formulaText string) string {
	h := sha256.New()
	h.Write([]byte(codegenVersion))
	h.Write([]byte{0})
	h.Write([]byte(formulaText))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Entry is a cached verdict: the outcome tag ("ok", "counterexample",
// "unknown", "horn_ok", "horn_fail") plus an opaque model rendering
// (empty for outcomes that carry none).
type Entry struct {
	Verdict string
	Model   string
}

// Lookup returns the cached entry for key, if any.
func (c *Cache) Lookup(key string) (Entry, bool, error) {
	var e Entry
	err := c.db.QueryRow(`SELECT verdict, model FROM verdicts WHERE key = ?`, key).Scan(&e.Verdict, &e.Model)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache: lookup %s: %w", key, err)
	}
	return e, true, nil
}

// Store records e under key, overwriting any previous entry — a
// re-verified function's freshest verdict always wins.
func (c *Cache) Store(key string, e Entry) error {
	_, err := c.db.Exec(`INSERT INTO verdicts (key, verdict, model) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET verdict = excluded.verdict, model = excluded.model`,
		key, e.Verdict, e.Model)
	if err != nil {
		return fmt.Errorf("cache: store %s: %w", key, err)
	}
	return nil
}

// Clean removes every cached verdict.
func (c *Cache) Clean() error {
	_, err := c.db.Exec(`DELETE FROM verdicts`)
	return err
}
