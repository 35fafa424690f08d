package internal

import (
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	tt "github.com/gnolang/tclean/internal/types"
)

const (
	cacheFileName      = "clean_cache.mp"
	cacheSchemaVersion = 1
	defaultCacheMaxAge = 7 * 24 * time.Hour
)

// CacheEntry records that a unit with the given content was left unchanged
// by a run with the given options fingerprint.
type CacheEntry struct {
	Hash         string    `msgpack:"hash"`
	Size         uint32    `msgpack:"size"`
	Fingerprint  string    `msgpack:"fingerprint"`
	CreatedAt    time.Time `msgpack:"created_at"`
	LastAccessed time.Time `msgpack:"last_accessed"`
}

type cacheFile struct {
	Schema  uint16                `msgpack:"schema"`
	Entries map[string]CacheEntry `msgpack:"entries"`
}

// Cache persists which units are already stable, so that a later run with
// the same options can skip them.
type Cache struct {
	CacheDir string
	entries  map[string]CacheEntry
	mutex    sync.Mutex
	maxAge   time.Duration
	dirty    bool
}

func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cache := &Cache{
		CacheDir: cacheDir,
		entries:  make(map[string]CacheEntry),
		maxAge:   defaultCacheMaxAge,
	}

	if err := cache.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	return cache, nil
}

func (c *Cache) path() string {
	return filepath.Join(c.CacheDir, cacheFileName)
}

func (c *Cache) load() error {
	f, err := os.Open(c.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	var data cacheFile
	if err := msgpack.NewDecoder(f).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode cache file: %w", err)
	}
	// an older layout is dropped rather than migrated
	if data.Schema != cacheSchemaVersion || data.Entries == nil {
		return nil
	}
	c.entries = data.Entries
	return nil
}

// Save writes the cache if it changed since it was loaded.
func (c *Cache) Save() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.dirty {
		return nil
	}

	f, err := os.CreateTemp(c.CacheDir, "tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(cacheFile{Schema: cacheSchemaVersion, Entries: c.entries}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode cache file: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.path()); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	c.dirty = false
	return nil
}

// Stable reports whether unit, with its current text, was recorded as
// unchanged under fingerprint.
func (c *Cache) Stable(unit tt.Unit, fingerprint string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[unit.ID]
	if !exists {
		return false
	}

	if c.isEntryInvalid(unit, fingerprint, entry) {
		delete(c.entries, unit.ID)
		c.dirty = true
		return false
	}

	entry.LastAccessed = time.Now()
	c.entries[unit.ID] = entry
	c.dirty = true
	return true
}

// MarkStable records unit as unchanged under fingerprint.
func (c *Cache) MarkStable(unit tt.Unit, fingerprint string) {
	size, err := safecast.Conv[uint32](len(unit.Text))
	if err != nil {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	c.entries[unit.ID] = CacheEntry{
		Hash:         contentHash(unit.Text),
		Size:         size,
		Fingerprint:  fingerprint,
		CreatedAt:    now,
		LastAccessed: now,
	}
	c.dirty = true
}

func (c *Cache) isEntryInvalid(unit tt.Unit, fingerprint string, entry CacheEntry) bool {
	// too old
	if time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}
	if entry.Fingerprint != fingerprint {
		return true
	}
	if size, err := safecast.Conv[uint32](len(unit.Text)); err != nil || size != entry.Size {
		return true
	}
	return entry.Hash != contentHash(unit.Text)
}

func (c *Cache) Invalidate(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, ok := c.entries[id]; ok {
		delete(c.entries, id)
		c.dirty = true
	}
}

func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.entries)
}

func (c *Cache) SetMaxAge(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = duration
}

func contentHash(text []byte) string {
	return fmt.Sprintf("%x", md5.Sum(text))
}
