package knowledge

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// memo caches load results per source URL for the life of the process.
// Concurrent misses on the same key share a single computation.
type memo struct {
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*Document
}

func newMemo() *memo {
	return &memo{entries: make(map[string]*Document)}
}

func (m *memo) lookup(key string) (*Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.entries[key]
	return doc, ok
}

// do returns the cached value for key or runs fn once to produce it.
// Errors are handed to every waiting caller but are not stored.
func (m *memo) do(key string, fn func() (*Document, error)) (*Document, error) {
	if doc, ok := m.lookup(key); ok {
		return doc, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		// A previous flight may have filled the entry between lookup and Do.
		if doc, ok := m.lookup(key); ok {
			return doc, nil
		}

		doc, err := fn()
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.entries[key] = doc
		m.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return nil, err
	}

	doc, _ := v.(*Document)
	return doc, nil
}

func (m *memo) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
