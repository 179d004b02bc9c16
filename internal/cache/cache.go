// Package cache holds read-through results keyed by query shape. Entries
// carry tags so writes can drop every entry derived from the data they touch.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is the read cache used by the query services.
//
// Get returns ok=false on a miss. An entry past its TTL is still returned,
// with isStale=true, for one more TTL and is then dropped; callers decide
// whether stale data is acceptable. Invalidate removes every entry carrying
// tag.
type Cache interface {
	Get(key string) (value any, isStale bool, ok bool)
	Set(key string, value any, ttl time.Duration, tags ...string)
	Invalidate(tag string)
}

const (
	DefaultMaxEntries = 10000
	sweepInterval     = time.Minute
)

type entry struct {
	value     any
	expiresAt time.Time
	evictAt   time.Time
	tags      []string
}

// Memory is the in-process Cache. Dead entries are swept on write at most
// once per minute, and the entry count is capped.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]entry
	byTag      map[string]map[string]struct{}
	maxEntries int
	nextSweep  time.Time
	now        func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries:    make(map[string]entry),
		byTag:      make(map[string]map[string]struct{}),
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
}

// WithMaxEntries caps the number of live entries. n <= 0 removes the cap.
func (m *Memory) WithMaxEntries(n int) *Memory {
	m.maxEntries = n
	return m
}

// WithClock replaces the time source. Used by tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Get(key string) (any, bool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, false
	}
	now := m.now()
	if !now.Before(e.evictAt) {
		return nil, false, false
	}
	return e.value, !now.Before(e.expiresAt), true
}

func (m *Memory) Set(key string, value any, ttl time.Duration, tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.removeLocked(key)
	if !now.Before(m.nextSweep) {
		m.sweepLocked(now)
		m.nextSweep = now.Add(sweepInterval)
	}
	for m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.evictOneLocked()
	}

	expiresAt := now.Add(ttl)
	m.entries[key] = entry{value: value, expiresAt: expiresAt, evictAt: expiresAt.Add(ttl), tags: tags}
	for _, tag := range tags {
		keys, ok := m.byTag[tag]
		if !ok {
			keys = make(map[string]struct{})
			m.byTag[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

func (m *Memory) Invalidate(tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.byTag[tag] {
		m.removeLocked(key)
	}
	delete(m.byTag, tag)
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) sweepLocked(now time.Time) {
	for key, e := range m.entries {
		if !now.Before(e.evictAt) {
			m.removeLocked(key)
		}
	}
}

// evictOneLocked drops the entry closest to expiry among a small sample.
func (m *Memory) evictOneLocked() {
	var (
		victim string
		oldest time.Time
		seen   int
	)
	for key, e := range m.entries {
		if seen == 0 || e.expiresAt.Before(oldest) {
			victim, oldest = key, e.expiresAt
		}
		if seen++; seen == 8 {
			break
		}
	}
	if seen > 0 {
		m.removeLocked(victim)
	}
}

func (m *Memory) removeLocked(key string) {
	e, ok := m.entries[key]
	if !ok {
		return
	}
	delete(m.entries, key)
	for _, tag := range e.tags {
		if keys, ok := m.byTag[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(m.byTag, tag)
			}
		}
	}
}

// Remember returns the cached value for key when it is fresh, and otherwise
// calls load and caches its result. Load errors are returned uncached.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, tags []string, load func(context.Context) (T, error)) (T, error) {
	if c != nil {
		if v, stale, ok := c.Get(key); ok && !stale {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if c != nil {
		c.Set(key, v, ttl, tags...)
	}
	return v, nil
}
