// Package assets loads cross-section profiles and watches them for changes.
package assets

import (
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/bezier-extrude/internal/shape"
)

// Manager resolves shape references. A reference is either a builtin name
// ("quad", "road") or a path to a YAML/TOML shape file.
type Manager struct {
	cache *Cache
	log   *zap.Logger
	mu    sync.Mutex
}

// NewManager creates a new asset manager.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cache: NewCache(),
		log:   log,
	}
}

// Key returns the cache key of a reference: builtin names are kept as they
// are, paths become absolute.
func Key(ref string) string {
	if IsBuiltin(ref) {
		return ref
	}
	if abs, err := filepath.Abs(ref); err == nil {
		return abs
	}
	return filepath.Clean(ref)
}

// IsBuiltin reports whether ref names a builtin profile.
func IsBuiltin(ref string) bool {
	return ref == shape.BuiltinQuad || ref == shape.BuiltinRoad
}

// Load returns the shape for ref, loading it on first use. Repeated loads
// return the same *Shape2D until the entry is invalidated.
func (m *Manager) Load(ref string) (*shape.Shape2D, error) {
	key := Key(ref)
	if s, ok := m.cache.Get(key); ok {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have loaded it while we waited.
	if s, ok := m.cache.Peek(key); ok {
		return s, nil
	}

	var (
		s   *shape.Shape2D
		err error
	)
	if IsBuiltin(key) {
		s, err = shape.Builtin(key)
	} else {
		s, err = shape.Load(key)
	}
	if err != nil {
		return nil, fmt.Errorf("loading shape %s: %w", ref, err)
	}

	m.cache.Set(key, s)
	m.log.Debug("shape loaded",
		zap.String("ref", key),
		zap.String("name", s.Name()),
		zap.Int("vertices", s.VertexCount()),
		zap.Int("lines", s.LineCount()),
	)
	return s, nil
}

// Invalidate drops ref from the cache so the next Load reads it again.
func (m *Manager) Invalidate(ref string) {
	m.cache.Delete(Key(ref))
}

// Reload invalidates and loads ref. On failure the previous entry is kept.
func (m *Manager) Reload(ref string) (*shape.Shape2D, error) {
	key := Key(ref)
	prev, hadPrev := m.cache.Peek(key)

	m.cache.Delete(key)
	s, err := m.Load(ref)
	if err != nil {
		if hadPrev {
			m.cache.Set(key, prev)
		}
		return nil, err
	}
	return s, nil
}

// Close clears the cache.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded shapes.
type Cache struct {
	data map[string]*shape.Shape2D
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*shape.Shape2D),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (*shape.Shape2D, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return s, ok
}

// Peek retrieves an item without touching the stats.
func (c *Cache) Peek(key string) (*shape.Shape2D, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.data[key]
	return s, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, s *shape.Shape2D) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = s
}

// Delete removes an item.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*shape.Shape2D)
	c.hits = 0
	c.misses = 0
}

// Len returns the number of cached shapes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
