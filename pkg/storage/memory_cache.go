package storage

import (
	"container/list"
	"errors"
	"sync"

	"github.com/gokaycavdar/go-urlguard/pkg/models"
)

// ErrEmptyKey is returned by Put for an empty URL.
var ErrEmptyKey = errors.New("cache key must not be empty")

// MemoryCache is a thread-safe, size-bounded LRU cache held in memory.
type MemoryCache struct {
	capacity int
	order    *list.List // front = most recently used
	items    map[string]*list.Element
	mu       sync.Mutex
}

type entry struct {
	key    string
	result models.ScoreResult
}

// NewMemoryCache creates a cache holding at most capacity entries.
// A capacity <= 0 disables caching: Put becomes a no-op.
func NewMemoryCache(capacity int) *MemoryCache {
	return &MemoryCache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (m *MemoryCache) Get(rawURL string) (models.ScoreResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[rawURL]
	if !ok {
		return models.ScoreResult{}, false
	}
	m.order.MoveToFront(el)
	return cloneResult(el.Value.(*entry).result), true
}

func (m *MemoryCache) Put(rawURL string, result models.ScoreResult) error {
	if rawURL == "" {
		return ErrEmptyKey
	}
	if m.capacity <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[rawURL]; ok {
		el.Value.(*entry).result = cloneResult(result)
		m.order.MoveToFront(el)
		return nil
	}

	m.items[rawURL] = m.order.PushFront(&entry{key: rawURL, result: cloneResult(result)})
	for m.order.Len() > m.capacity {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.items, oldest.Value.(*entry).key)
	}
	return nil
}

func (m *MemoryCache) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order.Init()
	m.items = make(map[string]*list.Element)
}

func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// cloneResult copies the slices so callers cannot mutate cached entries.
func cloneResult(r models.ScoreResult) models.ScoreResult {
	signals := make([]string, len(r.TriggeredSignals))
	copy(signals, r.TriggeredSignals)
	violations := make([]models.Violation, len(r.Violations))
	copy(violations, r.Violations)
	r.TriggeredSignals, r.Violations = signals, violations
	return r
}
