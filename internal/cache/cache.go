// Package cache stores instrumented output keyed by source content and
// compile options, so unchanged units are not recompiled.
package cache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"

	"github.com/funvibe/tlua/internal/pipeline"
)

// formatVersion is bumped when the printed output format changes.
// This ensures stale cached output is recompiled.
const formatVersion = "v1"

// unitNamespace scopes unit ids derived from keys.
var unitNamespace = uuid.MustParse("6f1c2a4e-93d8-5b7a-a0e2-1c4d8e9f7b30")

const schema = `
CREATE TABLE IF NOT EXISTS units (
	id          TEXT PRIMARY KEY,
	key         BLOB NOT NULL UNIQUE,
	source_name TEXT NOT NULL,
	output      TEXT NOT NULL,
	created     INTEGER NOT NULL
)`

// Key identifies one compilation: source bytes plus every option that
// changes the output.
type Key [blake2b.Size256]byte

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// UnitID is the stable id reported for a compiled unit.
func (k Key) UnitID() string {
	return uuid.NewSHA1(unitNamespace, k[:]).String()
}

// ComputeKey hashes the source with the options that affect the output,
// including the printer's line width.
func ComputeKey(source []byte, opts pipeline.Options, width int) Key {
	h, _ := blake2b.New256(nil)
	h.Write(source)
	h.Write([]byte("\x00"))
	if opts.Checks {
		h.Write([]byte("checks"))
	}
	h.Write([]byte("\x00"))
	h.Write([]byte(opts.Registry))
	h.Write([]byte("\x00"))
	h.Write([]byte(opts.TempPrefix))
	h.Write([]byte("\x00"))
	h.Write([]byte(strconv.Itoa(width)))
	h.Write([]byte("\x00"))
	h.Write([]byte(formatVersion))

	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

// Entry is one cached unit.
type Entry struct {
	ID         string
	Key        Key
	SourceName string
	Output     string
	Created    time.Time
}

// Cache is a sqlite-backed store of instrumented output.
// It is safe for concurrent use.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

// Get returns the entry stored under key. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, key Key) (entry *Entry, ok bool, err error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, source_name, output, created FROM units WHERE key = ?`, key[:])

	var e Entry
	var created int64
	if err := row.Scan(&e.ID, &e.SourceName, &e.Output, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cache: %w", err)
	}
	e.Key = key
	e.Created = time.Unix(created, 0)
	return &e, true, nil
}

// Put stores output under key, replacing an existing entry, and returns
// the stored entry.
func (c *Cache) Put(ctx context.Context, key Key, sourceName, output string) (*Entry, error) {
	e := &Entry{
		ID:         key.UnitID(),
		Key:        key,
		SourceName: sourceName,
		Output:     output,
		Created:    time.Now(),
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO units (id, key, source_name, output, created) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET source_name = excluded.source_name,
		     output = excluded.output, created = excluded.created`,
		e.ID, key[:], e.SourceName, e.Output, e.Created.Unix())
	if err != nil {
		return nil, fmt.Errorf("writing cache: %w", err)
	}
	return e, nil
}

// Len returns the number of cached units.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM units`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

// Clean removes all entries.
func (c *Cache) Clean(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM units`); err != nil {
		return fmt.Errorf("cleaning cache: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}
