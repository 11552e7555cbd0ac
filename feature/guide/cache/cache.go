package cache

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"guide-builder/core/errors"
	"guide-builder/core/reconcile"
	"guide-builder/feature/guide/models"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// Cache is the durable map from element key to cached payload.
// Readers may run concurrently with the single writer of a run.
type Cache struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]models.CacheEntry
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the clock used for lastSeen stamps and pruning.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty cache bound to path. Call Load to read the file.
func New(path string, logger *zap.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		path:    path,
		logger:  logger.With(zap.String("component", "cache")),
		now:     time.Now,
		entries: make(map[string]models.CacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// Load replaces the in-memory state with the file contents.
// It fails open: unreadable files leave an empty cache, corrupt lines are skipped,
// and the returned error (marked ErrCacheCorrupt) is informational.
func (c *Cache) Load() error {
	entries, dropped, err := readFile(c.path)

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("Cache loaded with errors",
			zap.String("path", c.path),
			zap.Int("entries", len(entries)),
			zap.Int("dropped", dropped),
			zap.Error(err))
		return err
	}

	c.logger.Debug("Cache loaded", zap.String("path", c.path), zap.Int("entries", len(entries)))
	return nil
}

// Get returns the entry for key.
func (c *Cache) Get(key string) (models.CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return models.CacheEntry{}, false
	}
	return clone(entry), true
}

// Lookup implements reconcile.Index.
func (c *Cache) Lookup(key string) (reconcile.Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return entry, true
}

// Put inserts or overwrites the entry for key and stamps it as seen now.
func (c *Cache) Put(key, hash string, payload json.RawMessage, images []models.ArtworkCandidate) {
	entry := models.CacheEntry{
		Key:      key,
		Hash:     hash,
		Payload:  append(json.RawMessage(nil), payload...),
		Images:   append([]models.ArtworkCandidate(nil), images...),
		LastSeen: c.now().UTC(),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// SetImages replaces the artwork candidates of an existing entry.
// It returns false when key is not cached.
func (c *Cache) SetImages(key string, images []models.ArtworkCandidate) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return false
	}
	entry.Images = append([]models.ArtworkCandidate(nil), images...)
	c.entries[key] = entry
	return true
}

// Touch stamps existing entries as seen now. Unknown keys are ignored.
func (c *Cache) Touch(keys ...string) {
	now := c.now().UTC()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if entry, ok := c.entries[key]; ok {
			entry.LastSeen = now
			c.entries[key] = entry
		}
	}
}

// Prune removes entries not seen within retention and returns how many were removed.
// A non-positive retention disables pruning.
func (c *Cache) Prune(retention time.Duration) int {
	if retention <= 0 {
		return 0
	}
	cutoff := c.now().UTC().Add(-retention)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if entry.LastSeen.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Save writes the cache atomically. Failures are marked ErrCacheSave.
func (c *Cache) Save() error {
	entries := c.Snapshot()
	if err := writeFile(c.path, entries); err != nil {
		return errors.Mark(errors.Wrapf(err, "save cache %s", c.path), models.ErrCacheSave)
	}
	c.logger.Debug("Cache saved", zap.String("path", c.path), zap.Int("entries", len(entries)))
	return nil
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns all keys, sorted.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of all entries sorted by key.
func (c *Cache) Snapshot() []models.CacheEntry {
	c.mu.RLock()
	entries := make([]models.CacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, clone(entry))
	}
	c.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries    int       `json:"entries"`
	WithImages int       `json:"withImages"`
	Empty      int       `json:"empty"`
	Oldest     time.Time `json:"oldest,omitempty"`
	Newest     time.Time `json:"newest,omitempty"`
}

// Stats returns aggregate counts and the lastSeen range.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{Entries: len(c.entries)}
	for _, entry := range c.entries {
		if entry.HasImages() {
			s.WithImages++
		}
		if !entry.HasPayload() {
			s.Empty++
		}
		if s.Oldest.IsZero() || entry.LastSeen.Before(s.Oldest) {
			s.Oldest = entry.LastSeen
		}
		if entry.LastSeen.After(s.Newest) {
			s.Newest = entry.LastSeen
		}
	}
	return s
}

// Lock takes an exclusive file lock next to the cache file so only one run
// mutates it at a time. The returned func releases the lock.
func (c *Cache) Lock() (func(), error) {
	lock := flock.New(c.path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "acquire cache lock")
	}
	if !ok {
		return nil, errors.WithHint(
			errors.Newf("another run holds the cache %s", c.path),
			"wait for the active run to finish or remove a stale lock file",
		)
	}
	return func() { _ = lock.Unlock() }, nil
}

func clone(e models.CacheEntry) models.CacheEntry {
	e.Payload = append(json.RawMessage(nil), e.Payload...)
	e.Images = append([]models.ArtworkCandidate(nil), e.Images...)
	return e
}
