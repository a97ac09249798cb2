package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Memory is the process-local fallback used when no redis address is
// configured. Values are stored as JSON so both implementations behave
// the same way.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry

	done      chan struct{}
	closeOnce sync.Once
}

type entry struct {
	data   []byte
	expiry time.Time
}

func NewMemory() *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *Memory) Get(ctx context.Context, key string, val any) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(e.expiry) {
		return false, nil
	}

	if err := json.Unmarshal(e.data, val); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[key] = entry{data: data, expiry: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Close stops the sweeper; the cache itself stays usable.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

func (m *Memory) sweep() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-t.C:
			m.mu.Lock()
			for key, e := range m.entries {
				if now.After(e.expiry) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
