package store

import (
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and the memory backend.
type Memory struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

func (m *Memory) Read(key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	return Entry{Timestamp: e.Timestamp, Payload: append([]byte(nil), e.Payload...)}, true
}

func (m *Memory) Write(key string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry{
		Timestamp: m.now(),
		Payload:   append([]byte(nil), payload...),
	}
}

func (m *Memory) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *Memory) KeysWithPrefix(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Backdate rewrites the timestamp of key, used by tests to age entries.
func (m *Memory) Backdate(key string, ts time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		e.Timestamp = ts
		m.entries[key] = e
	}
}
