package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type memoryEntry[V any] struct {
	key      string
	value    V
	deadline time.Time
}

func (e *memoryEntry[V]) expired(now time.Time) bool {
	return !e.deadline.IsZero() && now.After(e.deadline)
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	defaultTTL time.Duration
	sweepEvery time.Duration
	maxEntries int
}

// WithDefaultTTL sets the lifetime applied when Set gets a zero ttl.
// Negative keeps such entries forever. Defaults to one hour.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.defaultTTL = d }
}

// WithCleanupInterval sets how often expired entries are swept.
// Zero disables the background sweep; expired entries are then dropped on access.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.sweepEvery = d }
}

// WithMaxEntries bounds the cache; the least recently used entry is evicted first.
func WithMaxEntries(n int) MemoryOption {
	return func(c *memoryConfig) { c.maxEntries = n }
}

// Memory is an in-process LRU cache with expiration.
type Memory[V any] struct {
	cfg memoryConfig

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	closed  bool
	stop    chan struct{}

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewMemory creates an in-memory cache.
//
//	descriptors := cache.NewMemory[*Descriptor](
//	    cache.WithDefaultTTL(-1),
//	    cache.WithMaxEntries(1024),
//	)
//	defer descriptors.Close()
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	cfg := memoryConfig{defaultTTL: time.Hour, sweepEvery: time.Minute}
	for _, opt := range opts {
		opt(&cfg)
	}
	m := &Memory[V]{
		cfg:     cfg,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		stop:    make(chan struct{}),
	}
	if cfg.sweepEvery > 0 {
		go m.sweepLoop()
	}
	return m
}

// Get implements Cache. A hit marks the entry as recently used.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	el, ok := m.entries[key]
	if !ok {
		m.misses.Add(1)
		return zero, ErrNotFound
	}
	e := el.Value.(*memoryEntry[V])
	if e.expired(time.Now()) {
		m.drop(el)
		m.misses.Add(1)
		return zero, ErrNotFound
	}
	m.order.MoveToFront(el)
	m.hits.Add(1)
	return e.value, nil
}

// Set implements Cache.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	deadline := expiry(ttl, m.cfg.defaultTTL)

	if el, ok := m.entries[key]; ok {
		e := el.Value.(*memoryEntry[V])
		e.value, e.deadline = value, deadline
		m.order.MoveToFront(el)
		return nil
	}

	if m.cfg.maxEntries > 0 && len(m.entries) >= m.cfg.maxEntries {
		if oldest := m.order.Back(); oldest != nil {
			m.drop(oldest)
			m.evictions.Add(1)
		}
	}
	m.entries[key] = m.order.PushFront(&memoryEntry[V]{key: key, value: value, deadline: deadline})
	return nil
}

// Delete implements Cache. Deleting a missing key is not an error.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if el, ok := m.entries[key]; ok {
		m.drop(el)
	}
	return nil
}

// Len returns the number of stored entries, expired ones not yet swept included.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stats returns the lifetime counters.
func (m *Memory[V]) Stats() Stats {
	return Stats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Evictions: m.evictions.Load(),
		Entries:   m.Len(),
	}
}

// Close stops the sweeper. Further writes fail with ErrClosed; reads keep working.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.stop)
	}
	return nil
}

func (m *Memory[V]) sweepLoop() {
	t := time.NewTicker(m.cfg.sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-t.C:
			m.sweep(now)
		}
	}
}

func (m *Memory[V]) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for el := m.order.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*memoryEntry[V]).expired(now) {
			m.drop(el)
		}
		el = prev
	}
}

// drop removes el. Callers hold mu.
func (m *Memory[V]) drop(el *list.Element) {
	m.order.Remove(el)
	delete(m.entries, el.Value.(*memoryEntry[V]).key)
}

var _ Cache[any] = (*Memory[any])(nil)
