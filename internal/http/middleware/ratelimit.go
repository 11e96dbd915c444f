package middleware

import (
	"sync"
	"time"
)

type clientInfo struct {
	start time.Time
	count int
}

// memoryWindow is the fixed-window counter used when Redis is absent.
type memoryWindow struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	now     func() time.Time
}

func newMemoryWindow() *memoryWindow {
	return &memoryWindow{clients: make(map[string]*clientInfo), now: time.Now}
}

// incr counts a hit for key and returns the count inside the current window.
func (m *memoryWindow) incr(key string, window time.Duration) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	ci, ok := m.clients[key]
	if !ok || now.Sub(ci.start) > window {
		m.clients[key] = &clientInfo{start: now, count: 1}
		m.sweepLocked(now, window)
		return 1
	}
	ci.count++
	return int64(ci.count)
}

// sweepLocked drops expired windows so the map does not grow with every IP seen.
func (m *memoryWindow) sweepLocked(now time.Time, window time.Duration) {
	if len(m.clients) < 4096 {
		return
	}
	for k, ci := range m.clients {
		if now.Sub(ci.start) > window {
			delete(m.clients, k)
		}
	}
}
