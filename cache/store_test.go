package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return s
}

// writeEntry plants an entry file directly, bypassing Set, so tests can
// control created_at and ttl.
func writeEntry(t *testing.T, s *Store, url string, params map[string]string, e entry) {
	t.Helper()
	b, err := json.Marshal(&e)
	if err != nil {
		t.Fatalf("marshal entry: %v", err)
	}
	if err := os.WriteFile(s.entryPath(Fingerprint(url, params)), b, 0o600); err != nil {
		t.Fatalf("write entry: %v", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)

	url := "https://example.com/lol/summoner/v4/summoners/by-name/faker"
	params := map[string]string{"region": "kr"}
	payload := json.RawMessage(`{"puuid":"abc-123","name":"faker","summonerLevel":777}`)

	if err := s.Set(url, params, payload, 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, ok := s.Get(url, params)
	if !ok {
		t.Fatal("Get returned absent for freshly written entry")
	}
	if string(got) != string(payload) {
		t.Errorf("Get = %s, want %s", got, payload)
	}
}

func TestStoreGetMissingKey(t *testing.T) {
	s := newTestStore(t)
	if _, ok := s.Get("https://example.com/nothing", nil); ok {
		t.Error("Get returned a hit for a key that was never written")
	}
}

func TestStoreExpiredEntryRemovedOnRead(t *testing.T) {
	s := newTestStore(t)

	url := "https://example.com/matches/KR_1"
	writeEntry(t, s, url, nil, entry{
		CreatedAt: time.Now().Add(-2 * time.Second),
		TTL:       1,
		Data:      json.RawMessage(`{"stale":true}`),
	})

	if _, ok := s.Get(url, nil); ok {
		t.Error("Get returned a hit for an expired entry")
	}
	if _, err := os.Stat(s.entryPath(Fingerprint(url, nil))); !os.IsNotExist(err) {
		t.Error("expired entry file should have been deleted on read")
	}
}

func TestStoreEntryTTLFallsBackToDefault(t *testing.T) {
	s := newTestStore(t, WithDefaultTTL(time.Hour))

	url := "https://example.com/matches/KR_2"
	// No per-entry TTL: written 30 minutes ago, default TTL 1h, still fresh.
	writeEntry(t, s, url, nil, entry{
		CreatedAt: time.Now().Add(-30 * time.Minute),
		Data:      json.RawMessage(`{"fresh":true}`),
	})

	if _, ok := s.Get(url, nil); !ok {
		t.Error("entry within the default TTL should be a hit")
	}

	// Same age but default TTL shorter than the age: stale.
	short := newTestStore(t, WithDefaultTTL(time.Minute))
	writeEntry(t, short, url, nil, entry{
		CreatedAt: time.Now().Add(-30 * time.Minute),
		Data:      json.RawMessage(`{"fresh":false}`),
	})
	if _, ok := short.Get(url, nil); ok {
		t.Error("entry older than the default TTL should be a miss")
	}
}

func TestStoreCorruptEntrySelfHeals(t *testing.T) {
	s := newTestStore(t)

	url := "https://example.com/matches/KR_3"
	path := s.entryPath(Fingerprint(url, nil))
	if err := os.WriteFile(path, []byte("{not json at all"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	if _, ok := s.Get(url, nil); ok {
		t.Error("Get returned a hit for a corrupt entry")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry file should have been deleted on read")
	}
}

func TestStoreOverwriteReplacesEntry(t *testing.T) {
	s := newTestStore(t)

	url := "https://example.com/summoner"
	if err := s.Set(url, nil, json.RawMessage(`{"v":1}`), 0); err != nil {
		t.Fatalf("first Set: %v", err)
	}
	if err := s.Set(url, nil, json.RawMessage(`{"v":2}`), 0); err != nil {
		t.Fatalf("second Set: %v", err)
	}

	got, ok := s.Get(url, nil)
	if !ok {
		t.Fatal("Get returned absent after overwrite")
	}
	if string(got) != `{"v":2}` {
		t.Errorf("Get = %s, want the second write", got)
	}
	if n := s.Size(); n != 1 {
		t.Errorf("Size = %d after overwriting the same key, want 1", n)
	}
}

func TestStoreEvictionBound(t *testing.T) {
	const max = 10
	s := newTestStore(t, WithMaxEntries(max))

	for i := 0; i < max+5; i++ {
		url := fmt.Sprintf("https://example.com/matches/KR_%d", i)
		if err := s.Set(url, nil, json.RawMessage(`{}`), 0); err != nil {
			t.Fatalf("Set %d: %v", i, err)
		}
		// Distinct write times so eviction order is deterministic.
		time.Sleep(2 * time.Millisecond)
	}

	if n := s.Size(); n > max {
		t.Errorf("Size = %d after eviction pass, want <= %d", n, max)
	}

	// The 5 oldest-written keys must be gone, the rest present.
	for i := 0; i < max+5; i++ {
		url := fmt.Sprintf("https://example.com/matches/KR_%d", i)
		_, ok := s.Get(url, nil)
		if i < 5 && ok {
			t.Errorf("key %d should have been evicted", i)
		}
		if i >= 5 && !ok {
			t.Errorf("key %d should have survived eviction", i)
		}
	}
}

func TestStoreClear(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		url := fmt.Sprintf("https://example.com/e/%d", i)
		if err := s.Set(url, nil, json.RawMessage(`{}`), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	if n := s.Size(); n != 3 {
		t.Fatalf("Size = %d before Clear, want 3", n)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if n := s.Size(); n != 0 {
		t.Errorf("Size = %d after Clear, want 0", n)
	}

	// Idempotent on an already-empty store.
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear returned error: %v", err)
	}
}

func TestStoreRemove(t *testing.T) {
	s := newTestStore(t)

	url := "https://example.com/matches/KR_9"
	if err := s.Set(url, nil, json.RawMessage(`{}`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if !s.Remove(url, nil) {
		t.Error("Remove should report true for an existing entry")
	}
	if s.Remove(url, nil) {
		t.Error("Remove should report false for a missing entry")
	}
	if _, ok := s.Get(url, nil); ok {
		t.Error("entry should be absent after Remove")
	}
}

func TestStoreSweep(t *testing.T) {
	s := newTestStore(t)

	writeEntry(t, s, "https://example.com/old", nil, entry{
		CreatedAt: time.Now().Add(-time.Hour),
		TTL:       60,
		Data:      json.RawMessage(`{}`),
	})
	writeEntry(t, s, "https://example.com/new", nil, entry{
		CreatedAt: time.Now(),
		TTL:       3600,
		Data:      json.RawMessage(`{}`),
	})
	corrupt := filepath.Join(s.dir, "deadbeef"+entryExt)
	if err := os.WriteFile(corrupt, []byte("???"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	if removed := s.Sweep(); removed != 2 {
		t.Errorf("Sweep removed %d entries, want 2 (expired + corrupt)", removed)
	}
	if _, ok := s.Get("https://example.com/new", nil); !ok {
		t.Error("fresh entry should survive Sweep")
	}
}

func TestStoreSizeCountsExpiredEntries(t *testing.T) {
	s := newTestStore(t)

	writeEntry(t, s, "https://example.com/expired", nil, entry{
		CreatedAt: time.Now().Add(-time.Hour),
		TTL:       1,
		Data:      json.RawMessage(`{}`),
	})

	if n := s.Size(); n != 1 {
		t.Errorf("Size = %d, want 1: expired entries count until removed", n)
	}
}
