package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache is the keyed read/write surface of a report cache.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Purge()
	Size() int
}

var _ Cache[int] = (*LRUCache[int])(nil)

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// Purger is implemented by caches that can be emptied at once.
type Purger interface {
	Purge()
}

// Manager handles cache lifecycle: periodic expiry and purging on writes.
type Manager struct {
	mu          sync.Mutex
	caches      []Cleaner
	purgers     []Purger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	started     bool
}

// NewManager creates a new cache manager
func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager. Caches that implement Purger are
// also emptied by PurgeAll.
func (m *Manager) Register(cache Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, cache)
	if p, ok := cache.(Purger); ok {
		m.purgers = append(m.purgers, p)
	}
}

// PurgeAll empties every registered purgeable cache.
func (m *Manager) PurgeAll() {
	m.mu.Lock()
	purgers := append([]Purger(nil), m.purgers...)
	m.mu.Unlock()
	for _, p := range purgers {
		p.Purge()
	}
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			caches := append([]Cleaner(nil), m.caches...)
			m.mu.Unlock()

			total := 0
			for _, c := range caches {
				total += c.CleanExpired()
			}
			if total > 0 {
				slog.Debug("Expired cache entries removed", "count", total)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine
func (m *Manager) Stop() {
	m.mu.Lock()
	started := m.started
	m.started = false
	m.mu.Unlock()
	if !started {
		return
	}
	close(m.stopCleanup)
	<-m.cleanupDone
}
