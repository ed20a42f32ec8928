// Package cache provides a disk-backed response cache keyed by request
// identity. Each entry is a single JSON file named by the fingerprint of
// (URL, sorted query parameters) and carries its own TTL. The store caps
// the number of entries and evicts the oldest-written ones first.
package cache

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

const entryExt = ".json"

// entry is the on-disk representation of a cached response.
type entry struct {
	CreatedAt time.Time       `json:"created_at"`
	TTL       int64           `json:"ttl"` // seconds; <=0 falls back to the store default
	Data      json.RawMessage `json:"data"`
}

// Store is a file-based cache. All entries live directly under a single
// directory. Writes replace whole entries via temp-file-plus-rename, so
// concurrent writers to the same key are last-writer-wins and readers never
// observe a partial file.
type Store struct {
	dir        string
	defaultTTL time.Duration
	maxEntries int
	log        zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithDefaultTTL sets the TTL applied to entries written without an explicit
// one. Default: 1 hour.
func WithDefaultTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.defaultTTL = d
		}
	}
}

// WithMaxEntries caps the number of persisted entries. When a write pushes
// the store over the cap, the oldest-written entries are evicted until the
// cap holds again. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithLogger sets the logger used for eviction and corruption events.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:        dir,
		defaultTTL: time.Hour,
		log:        zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", s.dir, err)
	}
	return s, nil
}

// Get returns the cached payload for (url, params) if a fresh entry exists.
// Expired entries are deleted on read. Unreadable or corrupt entries are
// treated as misses and deleted; they never produce an error.
func (s *Store) Get(url string, params map[string]string) (json.RawMessage, bool) {
	path := s.entryPath(Fingerprint(url, params))

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(b, &e); err != nil {
		s.log.Debug().Err(err).Str("path", path).Msg("removing corrupt cache entry")
		s.remove(path)
		return nil, false
	}

	if s.expired(e, time.Now()) {
		s.remove(path)
		return nil, false
	}
	return e.Data, true
}

// Set persists data under the fingerprint of (url, params), replacing any
// previous entry. A ttl of zero or less stores the default TTL. After a
// successful write the store runs one eviction pass.
func (s *Store) Set(url string, params map[string]string, data json.RawMessage, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	e := entry{
		CreatedAt: time.Now(),
		TTL:       int64(ttl / time.Second),
		Data:      data,
	}

	b, err := json.MarshalIndent(&e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	path := s.entryPath(Fingerprint(url, params))
	tmp := path + fmt.Sprintf(".tmp.%d", rand.Int())
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write cache entry: %w", err)
	}

	s.evict()
	return nil
}

// Remove deletes the entry for (url, params). It reports whether an entry
// was actually removed.
func (s *Store) Remove(url string, params map[string]string) bool {
	return os.Remove(s.entryPath(Fingerprint(url, params))) == nil
}

// Clear deletes every entry in the store. Calling Clear on an empty store
// is a no-op.
func (s *Store) Clear() error {
	names, err := s.list()
	if err != nil {
		return err
	}

	var firstErr error
	for _, n := range names {
		if err := os.Remove(filepath.Join(s.dir, n.name)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Size returns the number of persisted entries, expired ones included.
// Only an explicit read, sweep or eviction removes stale files.
func (s *Store) Size() int {
	names, err := s.list()
	if err != nil {
		return 0
	}
	return len(names)
}

// Sweep removes every already-expired or unreadable entry and returns the
// number of files deleted. Intended as a one-time startup compaction.
func (s *Store) Sweep() int {
	names, err := s.list()
	if err != nil {
		return 0
	}

	now := time.Now()
	removed := 0
	for _, n := range names {
		path := filepath.Join(s.dir, n.name)
		b, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(b, &e); err != nil || s.expired(e, now) {
			if s.remove(path) {
				removed++
			}
		}
	}
	if removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("cache sweep complete")
	}
	return removed
}

// expired reports whether e is stale at the given instant, falling back to
// the store-wide default when the entry carries no TTL of its own.
func (s *Store) expired(e entry, now time.Time) bool {
	ttl := time.Duration(e.TTL) * time.Second
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return now.Sub(e.CreatedAt) >= ttl
}

// evict removes the oldest-written entries until the store is back under
// its cap. Individual removal failures are logged and skipped.
func (s *Store) evict() {
	if s.maxEntries <= 0 {
		return
	}

	names, err := s.list()
	if err != nil || len(names) <= s.maxEntries {
		return
	}

	sort.Slice(names, func(i, j int) bool { return names[i].mtime.Before(names[j].mtime) })

	for _, n := range names[:len(names)-s.maxEntries] {
		path := filepath.Join(s.dir, n.name)
		if err := os.Remove(path); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("cache eviction failed")
			continue
		}
		s.log.Debug().Str("path", path).Msg("evicted cache entry")
	}
}

type dirEntry struct {
	name  string
	mtime time.Time
}

// list returns the entry files under the cache dir with their write times.
func (s *Store) list() ([]dirEntry, error) {
	des, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	names := make([]dirEntry, 0, len(des))
	for _, de := range des {
		if de.IsDir() || filepath.Ext(de.Name()) != entryExt {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		names = append(names, dirEntry{name: de.Name(), mtime: info.ModTime()})
	}
	return names, nil
}

func (s *Store) remove(path string) bool {
	if err := os.Remove(path); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("removing cache entry failed")
		return false
	}
	return true
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.dir, key+entryExt)
}
