// Package dbcache memoizes the merged ImportDB built for a given target
// file and ordered contributor root list, the way the corpus's LRU cache
// memoizes expensive derived values: an in-memory LRU keyed by a stable
// digest of the build inputs, an optional on-disk msgpack snapshot, and
// a singleflight.Group so concurrent lookups for the same key share a
// single build rather than racing each other (spec.md §4.14).
package dbcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found")

// Key derives the cache key for a target file resolved against an
// ordered list of contributor roots: the absolute target path and the
// roots, in order, joined and hashed. Two builds with the same target
// file but a different root order (and therefore different precedence,
// spec.md §4.7) get distinct keys.
func Key(absTargetFile string, resolvedRoots []string) string {
	h := sha256.New()
	io.WriteString(h, absTargetFile)
	h.Write([]byte{0})
	for _, root := range resolvedRoots {
		io.WriteString(h, root)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Entry represents a cache entry with metadata.
type Entry struct {
	Key        string
	Data       []byte // msgpack-encoded ImportDB snapshot
	AccessedAt time.Time
	CreatedAt  time.Time
}

// listItem is an item in the doubly-linked list.
type listItem struct {
	Entry
	prev *listItem
	next *listItem
}

type list struct {
	head *listItem
	tail *listItem
	len  int
}

func newList() *list { return &list{} }

func (l *list) moveToFront(item *listItem) {
	if item == l.head {
		return
	}
	if item.prev != nil {
		item.prev.next = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	}
	if item == l.tail {
		l.tail = item.prev
	}
	item.prev = nil
	item.next = l.head
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
}

func (l *list) removeBack() *listItem {
	if l.tail == nil {
		return nil
	}
	item := l.tail
	l.tail = item.prev
	if l.tail != nil {
		l.tail.next = nil
	} else {
		l.head = nil
	}
	l.len--
	return item
}

func (l *list) pushFront(item *listItem) {
	item.next = l.head
	item.prev = nil
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

// Options configures the cache.
type Options struct {
	// MaxSize is the maximum number of entries held in memory. 0 means
	// unlimited.
	MaxSize int
}

// Cache is an in-memory LRU of ImportDB build results, with disk
// persistence and singleflight-collapsed loading on miss.
type Cache struct {
	mu      sync.RWMutex
	items   map[string]*listItem
	lru     *list
	maxSize int
	group   singleflight.Group
}

// New creates a new Cache with the given options.
func New(opts Options) *Cache {
	return &Cache{
		items:   make(map[string]*listItem),
		lru:     newList(),
		maxSize: opts.MaxSize,
	}
}

// Get retrieves the encoded ImportDB snapshot for key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return nil, false
	}
	item.AccessedAt = time.Now()
	c.lru.moveToFront(item)
	return item.Data, true
}

// Set stores the encoded snapshot for key, evicting the least recently
// used entry if the cache is at capacity.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, exists := c.items[key]; exists {
		item.Data = data
		item.AccessedAt = time.Now()
		c.lru.moveToFront(item)
		return
	}

	item := &listItem{Entry: Entry{
		Key:        key,
		Data:       data,
		AccessedAt: time.Now(),
		CreatedAt:  time.Now(),
	}}
	c.items[key] = item
	c.lru.pushFront(item)
	c.evictIfNeeded()
}

// GetOrLoad returns the cached snapshot for key, or calls load to build
// it on a miss. Concurrent callers for the same key share a single call
// to load via singleflight; only the winner's result is cached.
func (c *Cache) GetOrLoad(key string, load func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.Get(key); ok {
		return data, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if data, ok := c.Get(key); ok {
			return data, nil
		}
		data, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate removes a single key, forcing the next GetOrLoad to rebuild
// it. Used when a contributor file's mtime or contents change.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return
	}
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		c.lru.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		c.lru.tail = item.prev
	}
	c.lru.len--
	delete(c.items, key)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*listItem)
	c.lru = newList()
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache) evictIfNeeded() {
	for c.maxSize > 0 && c.lru.len > c.maxSize {
		item := c.lru.removeBack()
		if item == nil {
			break
		}
		delete(c.items, item.Key)
	}
}

// diskSnapshot is the on-disk msgpack envelope for a cache's entries.
type diskSnapshot struct {
	Version int     `msgpack:"version"`
	Entries []Entry `msgpack:"entries"`
}

const diskSnapshotVersion = 1

// Save persists every entry to w using msgpack, most recently used
// first.
func (c *Cache) Save(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := diskSnapshot{Version: diskSnapshotVersion, Entries: make([]Entry, 0, len(c.items))}
	for item := c.lru.head; item != nil; item = item.next {
		snap.Entries = append(snap.Entries, item.Entry)
	}

	enc := msgpack.NewEncoder(w)
	return enc.Encode(snap)
}

// Load replaces the cache's contents with the snapshot read from r.
func (c *Cache) Load(r io.Reader) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var snap diskSnapshot
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return fmt.Errorf("decoding cache snapshot: %w", err)
	}
	if snap.Version != diskSnapshotVersion {
		return fmt.Errorf("unsupported cache snapshot version %d", snap.Version)
	}

	c.items = make(map[string]*listItem)
	c.lru = newList()
	for i := len(snap.Entries) - 1; i >= 0; i-- {
		entry := snap.Entries[i]
		item := &listItem{Entry: entry}
		c.items[entry.Key] = item
		c.lru.pushFront(item)
	}
	return nil
}

// SaveToFile persists the cache to path, creating parent directories as
// needed.
func (c *Cache) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()
	return c.Save(f)
}

// LoadFromFile loads the cache from path. A missing file is not an
// error: the cache simply starts empty.
func (c *Cache) LoadFromFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}

// DefaultCachePath returns the conventional location for the ImportDB
// disk cache, mirroring the default config file's placement.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pyflyby-go/importdb.cache"
	}
	return joinPath(home, ".pyflyby-go", "importdb.cache")
}

func joinPath(elem ...string) string {
	return strings.Join(elem, string(os.PathSeparator))
}

// Stats reports instrumentation counters for a Cache, useful in
// verbose/diagnostic output.
type Stats struct {
	Length    int   `json:"length"`
	HitCount  int64 `json:"hit_count"`
	MissCount int64 `json:"miss_count"`
}

// InstrumentedCache wraps a Cache with hit/miss counters.
type InstrumentedCache struct {
	*Cache
	mu        sync.Mutex
	hitCount  int64
	missCount int64
}

// NewInstrumented wraps opts in a Cache with hit/miss tracking.
func NewInstrumented(opts Options) *InstrumentedCache {
	return &InstrumentedCache{Cache: New(opts)}
}

// Get records a hit or miss in addition to delegating to Cache.Get.
func (c *InstrumentedCache) Get(key string) ([]byte, bool) {
	data, found := c.Cache.Get(key)
	c.mu.Lock()
	if found {
		c.hitCount++
	} else {
		c.missCount++
	}
	c.mu.Unlock()
	return data, found
}

// Stats returns the current hit/miss counters.
func (c *InstrumentedCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Length: c.Cache.Len(), HitCount: c.hitCount, MissCount: c.missCount}
}

// MarshalJSON lets Stats be logged directly with internal/log's
// structured JSON output mode.
func (s Stats) MarshalJSON() ([]byte, error) {
	type alias Stats
	return json.Marshal(alias(s))
}
